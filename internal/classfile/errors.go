package classfile

import "errors"

// ErrBadMagic, ErrTruncated, and ErrBadConstantTag are the RejectedClassfile
// causes enumerated in §7: bad magic, unexpected end-of-stream, or a
// constant-pool tag outside the documented set.
var (
	ErrBadMagic       = errors.New("classfile: bad magic number")
	ErrTruncated      = errors.New("classfile: unexpected end of stream")
	ErrBadConstantTag = errors.New("classfile: constant pool tag outside accepted set")
	ErrPathMismatch   = errors.New("classfile: FQN does not match archive-relative path")
)

// RejectedError wraps the underlying cause for a classfile the decoder
// refused to turn into a ClassInfo. Scan continues past it per §7's
// local-recovery policy.
type RejectedError struct {
	Path string
	Err  error
}

func (e *RejectedError) Error() string {
	return "classfile: rejected " + e.Path + ": " + e.Err.Error()
}

func (e *RejectedError) Unwrap() error { return e.Err }
