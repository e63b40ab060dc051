// Package message holds the greeting selector exported by libgosample.
package message

const (
	Hello = "Hello, world!"
	Bye   = "Bye bye"
)

// Get returns Hello when hello is true and Bye otherwise.
func Get(hello bool) string {
	if hello {
		return Hello
	}
	return Bye
}
