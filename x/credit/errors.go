package credit

import (
	"github.com/iov-one/pledge/errors"
)

var (
	// ErrNotEnabled is returned when new listings are administratively
	// disabled. Operations on already listed contracts are not gated.
	ErrNotEnabled = errors.Register(1100, "not enabled")
)
