package transport

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status is the ServerStatus of §3/§6: either Ok or an Error(msg), with an
// underlying grpc status.Code so that boundary behaviors like
// DEADLINE_EXCEEDED/UNAVAILABLE/UNIMPLEMENTED (§8) map onto it directly.
type Status struct {
	st *status.Status
}

// OK returns the Ok status.
func OK() Status {
	return Status{st: status.New(codes.OK, "")}
}

// Errorf builds a non-Ok status with the given code and formatted message.
func Errorf(code codes.Code, format string, args ...any) Status {
	return Status{st: status.Newf(code, format, args...)}
}

// FromError converts an arbitrary error into a Status, defaulting to
// codes.Unknown when err does not already carry a grpc status.
func FromError(err error) Status {
	if err == nil {
		return OK()
	}
	if st, ok := status.FromError(err); ok {
		return Status{st: st}
	}
	return Status{st: status.New(codes.Unknown, err.Error())}
}

// Ok reports whether the status is codes.OK.
func (s Status) Ok() bool {
	return s.st == nil || s.st.Code() == codes.OK
}

// Code returns the underlying grpc code.
func (s Status) Code() codes.Code {
	if s.st == nil {
		return codes.OK
	}
	return s.st.Code()
}

// Message returns the status's human-readable message.
func (s Status) Message() string {
	if s.st == nil {
		return ""
	}
	return s.st.Message()
}

// Err converts the Status to an error suitable for returning from a grpc
// handler; nil when Ok.
func (s Status) Err() error {
	if s.Ok() {
		return nil
	}
	return s.st.Err()
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if s.Ok() {
		return "OK"
	}
	return s.Code().String() + ": " + s.Message()
}
