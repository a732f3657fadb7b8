package orm

import (
	"github.com/iov-one/pledge/errors"
)

var _ CloneableData = (*Counter)(nil)

// Counter could be used for sequence, but mainly just for test
type Counter struct {
	Count int64
}

// Marshal encodes the counter in binary
func (c *Counter) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(c)
}

// Unmarshal loads the counter from its binary representation
func (c *Counter) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, c)
}

// Validate returns an error on negative numbers
func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "count must be non-negative")
	}
	return nil
}

// Copy produces another counter with the same value
func (c *Counter) Copy() CloneableData {
	return &Counter{Count: c.Count}
}

// NewCounter returns an object wrapping a counter for the given key
func NewCounter(key []byte, count int64) Object {
	return NewSimpleObj(key, &Counter{Count: count})
}
