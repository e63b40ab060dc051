package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMessageRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		hello bool
		want  string
	}{
		{hello: true, want: "Hello, world!"},
		{hello: false, want: "Bye bye"},
	} {
		msg := gosample_get_message(boolArg(tt.hello))
		require.NotNil(t, msg)
		assert.Equal(t, tt.want, goString(msg))
		gosample_free_message(msg)
	}
}

func TestGetMessageByteIdentical(t *testing.T) {
	first := gosample_get_message(false)
	defer gosample_free_message(first)

	for i := 0; i < 10; i++ {
		msg := gosample_get_message(false)
		assert.Equal(t, goString(first), goString(msg))
		gosample_free_message(msg)
	}
}

func TestGetMessageReturnsDistinctBuffers(t *testing.T) {
	a := gosample_get_message(true)
	b := gosample_get_message(true)
	defer gosample_free_message(a)
	defer gosample_free_message(b)

	assert.NotSame(t, a, b)
}

func TestNewOwnedStringRejectsEmbeddedNul(t *testing.T) {
	assert.Nil(t, newOwnedString("Hello\x00world"))
}

func TestFreeMessageAcceptsNil(t *testing.T) {
	assert.NotPanics(t, func() {
		gosample_free_message(nil)
	})
}
