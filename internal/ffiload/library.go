//go:build darwin || linux

package ffiload

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

// Library is an opened libgosample.
type Library struct {
	path   string
	handle uintptr

	mu          sync.Mutex
	getMessage  func(hello bool) *byte
	freeMessage func(msg *byte)
}

// Open loads the shared library at path and resolves its exports.
func Open(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	// RegisterLibFunc panics on missing symbols
	for _, sym := range []string{GetMessageSymbol, FreeMessageSymbol} {
		_, err = purego.Dlsym(handle, sym)
		if err != nil {
			purego.Dlclose(handle)
			return nil, fmt.Errorf("Open: %s: %w", path, err)
		}
	}

	l := &Library{path: path, handle: handle}
	purego.RegisterLibFunc(&l.getMessage, handle, GetMessageSymbol)
	purego.RegisterLibFunc(&l.freeMessage, handle, FreeMessageSymbol)
	return l, nil
}

func (l *Library) Path() string { return l.path }

// Message calls gosample_get_message, copies the result and releases it
// with gosample_free_message.
func (l *Library) Message(hello bool) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle == 0 {
		return "", fmt.Errorf("Message: %s is closed", l.path)
	}

	p := l.getMessage(hello)
	if p == nil {
		return "", ErrNullMessage
	}
	defer l.freeMessage(p)

	return goString(p), nil
}

// Close unloads the library. Go runtimes loaded into a process are never
// torn down, the handle is only released.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle == 0 {
		return nil
	}

	err := purego.Dlclose(l.handle)
	l.handle = 0
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}
