package cash

import (
	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/orm"
)

// Controller is the functionality needed by other extensions to move
// funds between wallets. This is implemented by CashController and
// should be passed into the constructor of any code that moves money.
type Controller interface {
	// MoveFunds moves the given amount from src to dest.
	MoveFunds(db pledge.KVStore, src, dest pledge.Address, amount uint64) error

	// IssueFunds credits the given amount to dest, minting new tokens.
	IssueFunds(db pledge.KVStore, dest pledge.Address, amount uint64) error

	// Balance returns the current balance of the given address. An
	// address without a wallet has a zero balance.
	Balance(db pledge.ReadOnlyKVStore, addr pledge.Address) (uint64, error)
}

// CashController is the standard Controller implementation, backed by
// the wallet bucket.
type CashController struct {
	bucket orm.ModelBucket
}

var _ Controller = CashController{}

// NewController returns a controller operating on the standard wallet
// bucket.
func NewController() CashController {
	return CashController{bucket: NewWalletBucket()}
}

// MoveFunds moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient funds, it fails.
func (c CashController) MoveFunds(db pledge.KVStore, src, dest pledge.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero transfer")
	}
	srcKey, err := walletKey(src)
	if err != nil {
		return err
	}
	destKey, err := walletKey(dest)
	if err != nil {
		return err
	}

	var sender Wallet
	if err := c.bucket.One(db, srcKey, &sender); err != nil {
		return errors.Wrapf(err, "source %s", src)
	}
	if err := sender.Subtract(amount); err != nil {
		return errors.Wrapf(err, "source %s", src)
	}

	// a transfer to self is a noop once covered
	if src.Equals(dest) {
		return nil
	}

	var recipient Wallet
	switch err := c.bucket.One(db, destKey, &recipient); {
	case err == nil, errors.ErrNotFound.Is(err):
		// a missing wallet is created on first credit
	default:
		return errors.Wrapf(err, "destination %s", dest)
	}
	if err := recipient.Add(amount); err != nil {
		return errors.Wrapf(err, "destination %s", dest)
	}

	// save them and return
	if _, err := c.bucket.Put(db, srcKey, &sender); err != nil {
		return err
	}
	_, err = c.bucket.Put(db, destKey, &recipient)
	return err
}

// IssueFunds attempts to add the given amount to the destination
// address, creating the wallet when missing. Fails on overflow.
func (c CashController) IssueFunds(db pledge.KVStore, dest pledge.Address, amount uint64) error {
	destKey, err := walletKey(dest)
	if err != nil {
		return err
	}

	var recipient Wallet
	switch err := c.bucket.One(db, destKey, &recipient); {
	case err == nil, errors.ErrNotFound.Is(err):
	default:
		return errors.Wrapf(err, "destination %s", dest)
	}
	if err := recipient.Add(amount); err != nil {
		return errors.Wrapf(err, "destination %s", dest)
	}

	_, err = c.bucket.Put(db, destKey, &recipient)
	return err
}

// Balance returns the current balance of the given address. An address
// without a wallet has a zero balance.
func (c CashController) Balance(db pledge.ReadOnlyKVStore, addr pledge.Address) (uint64, error) {
	key, err := walletKey(addr)
	if err != nil {
		return 0, err
	}
	var w Wallet
	switch err := c.bucket.One(db, key, &w); {
	case err == nil:
		return w.Balance, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}
