package pledgetest

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/iov-one/pledge"
)

var condCounter int64

// NewCondition returns a new, unique condition. Each call returns a
// different value, so the matching address is unique as well.
func NewCondition() pledge.Condition {
	n := atomic.AddInt64(&condCounter, 1)
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, uint64(n))
	return pledge.NewCondition("test", "seq", data)
}

// NewAddress returns the address of a new, unique condition.
func NewAddress() pledge.Address {
	return NewCondition().Address()
}
