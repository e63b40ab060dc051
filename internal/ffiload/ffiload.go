// Package ffiload loads a built libgosample shared library at runtime,
// without cgo, to check its exports from the host.
package ffiload

import (
	"errors"
	"unsafe"
)

const (
	GetMessageSymbol  = "gosample_get_message"
	FreeMessageSymbol = "gosample_free_message"
)

var (
	ErrUnsupported = errors.New("ffiload: loading shared libraries is not supported on this platform")
	ErrNullMessage = errors.New("ffiload: library returned a null message")
)

// goString copies the NUL-terminated string at p.
func goString(p *byte) string {
	if p == nil {
		return ""
	}

	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
