package stream

import "github.com/google/uuid"

// Salt replaces the ID of every record sent over a stream. It is created
// once per process and never changes afterwards.
type Salt string

// NewSalt returns value as a Salt, or a random one when value is empty.
func NewSalt(value string) Salt {
	if value != "" {
		return Salt(value)
	}
	return Salt(uuid.NewString())
}

func (s Salt) String() string { return string(s) }
