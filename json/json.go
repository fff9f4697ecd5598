// Package json provides small JSON scanning helpers built on jsonparser,
// used by the descriptor catalog loader to avoid a full unmarshal pass.
package json

import (
	"unsafe"

	jsp "github.com/buger/jsonparser"
)

// S returns string from byte slice, in an unsafe way.
func S(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// Q removes "double quotes" in buf, if present.
func Q(buf []byte) []byte {
	if l := len(buf); l > 1 && buf[0] == '"' && buf[l-1] == '"' {
		return buf[1 : l-1]
	} else {
		return buf
	}
}

// SQ returns string from byte slice, unquoting if necessary.
func SQ(buf []byte) string {
	return S(Q(buf))
}

// ArrayEach calls cb for each element in the src array.
// If the callback returns a non-nil error, it breaks immediately and returns it.
func ArrayEach(src []byte, cb func(val []byte) error) (reterr error) {
	defer func() {
		if r, ok := recover().(error); ok {
			reterr = r
		}
	}()

	jsp.ArrayEach(src, func(val []byte, _ jsp.ValueType, _ int, _ error) {
		if err := cb(val); err != nil {
			panic(err) // the only way to break from ArrayEach
		}
	})

	return nil
}

// ObjectEach calls cb for each key/value pair in the src object.
// If the callback returns a non-nil error, it breaks immediately and returns it.
func ObjectEach(src []byte, cb func(key, val []byte) error) error {
	return jsp.ObjectEach(src, func(key, val []byte, _ jsp.ValueType, _ int) error {
		return cb(key, val)
	})
}
