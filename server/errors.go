package server

import "errors"

// ErrAlreadyServing marks a duplicate (path, host) registration (§3/§8:
// "after accept returns, insert of the same pair fails").
var ErrAlreadyServing = errors.New("server: already serving")

// ErrNotListening is returned by Builder.BuildAndStart when no listening
// port was configured.
var ErrNotListening = errors.New("server: no listening port configured")
