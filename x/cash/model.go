package cash

import (
	"math"

	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/orm"
)

var _ orm.CloneableData = (*Wallet)(nil)

// Wallet holds the token balance of one address.
type Wallet struct {
	Balance uint64
}

// Marshal encodes the wallet in binary
func (w *Wallet) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(w)
}

// Unmarshal loads the wallet from its binary representation
func (w *Wallet) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, w)
}

// Validate is a no-op. An unsigned balance cannot go out of range.
func (w *Wallet) Validate() error {
	return nil
}

// Copy makes a new wallet with the same balance
func (w *Wallet) Copy() orm.CloneableData {
	return &Wallet{Balance: w.Balance}
}

// Add increases the balance by the given amount.
// Returns an error on overflow.
func (w *Wallet) Add(amount uint64) error {
	if w.Balance > math.MaxUint64-amount {
		return errors.Wrap(errors.ErrOverflow, "wallet balance")
	}
	w.Balance += amount
	return nil
}

// Subtract decreases the balance by the given amount.
// Returns an error if the balance is insufficient.
func (w *Wallet) Subtract(amount uint64) error {
	if w.Balance < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "balance %d, needed %d", w.Balance, amount)
	}
	w.Balance -= amount
	return nil
}

// NewWalletBucket returns a bucket for keeping wallets, keyed by the
// owner address.
func NewWalletBucket() orm.ModelBucket {
	return orm.NewModelBucket("cash", &Wallet{})
}

// walletKey validates and returns the primary key of a wallet.
func walletKey(addr pledge.Address) ([]byte, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "wallet address")
	}
	return addr, nil
}
