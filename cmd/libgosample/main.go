// Command libgosample is built with -buildmode c-shared (or c-archive) and
// exposes the greeting selector through the C ABI.
//
// Strings returned by gosample_get_message are allocated with malloc and owned
// by the caller, who must hand them back to gosample_free_message.
package main

/*

#include <stdbool.h>
#include <stdlib.h>

*/
import "C"
import (
	"unsafe"

	"github.com/rajveermalviya/gosample/message"
)

//export gosample_get_message
func gosample_get_message(hello C.bool) *C.char {
	return newOwnedString(message.Get(bool(hello)))
}

//export gosample_free_message
func gosample_free_message(msg *C.char) {
	freeOwnedString(msg)
}

func main() {}

// newOwnedString copies s into a NUL-terminated buffer allocated by the C
// allocator. Ownership moves to the caller. Strings that cannot be represented
// as a C string return nil.
func newOwnedString(s string) *C.char {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return nil
		}
	}
	return C.CString(s)
}

func freeOwnedString(s *C.char) {
	if s == nil {
		return
	}
	C.free(unsafe.Pointer(s))
}

// boolArg and goString let main_test.go reach cgo types, _test.go files
// cannot import "C".
func boolArg(b bool) C.bool {
	return C.bool(b)
}

// goString copies a C string into Go memory without releasing it.
func goString(s *C.char) string {
	return C.GoString(s)
}
