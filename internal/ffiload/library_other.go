//go:build !darwin && !linux

package ffiload

type Library struct {
	path string
}

func Open(path string) (*Library, error) {
	return nil, ErrUnsupported
}

func (l *Library) Path() string { return l.path }

func (l *Library) Message(hello bool) (string, error) {
	return "", ErrUnsupported
}

func (l *Library) Close() error { return nil }
