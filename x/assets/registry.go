package assets

import (
	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/orm"
)

// Registry is the functionality needed by other extensions to manage
// collateral tokens.
type Registry interface {
	// Mint creates a new token with the given ID, owned by owner.
	Mint(db pledge.KVStore, id []byte, owner pledge.Address) error

	// Burn destroys the token. Only the current owner can burn.
	Burn(db pledge.KVStore, actor pledge.Address, id []byte) error

	// Approve allows grantee to transfer the token on behalf of the
	// owner. Only the current owner can approve. A nil grantee clears
	// any approval.
	Approve(db pledge.KVStore, actor pledge.Address, id []byte, grantee pledge.Address) error

	// Transfer moves the token to a new owner. The actor must be the
	// current owner or the approved address. Any approval is wiped.
	Transfer(db pledge.KVStore, actor pledge.Address, id []byte, newOwner pledge.Address) error

	// Owner returns the current owner of the token.
	Owner(db pledge.ReadOnlyKVStore, id []byte) (pledge.Address, error)

	// Approved returns the approved address of the token, or nil.
	Approved(db pledge.ReadOnlyKVStore, id []byte) (pledge.Address, error)

	// ByOwner returns the IDs of all tokens held by the given address.
	ByOwner(db pledge.ReadOnlyKVStore, owner pledge.Address) ([][]byte, error)
}

// TokenRegistry is the standard Registry implementation, backed by the
// token bucket.
type TokenRegistry struct {
	bucket orm.ModelBucket
}

var _ Registry = TokenRegistry{}

// NewRegistry returns a registry operating on the standard token
// bucket.
func NewRegistry() TokenRegistry {
	return TokenRegistry{bucket: NewTokenBucket()}
}

// Mint creates a new token with the given ID, owned by owner.
func (r TokenRegistry) Mint(db pledge.KVStore, id []byte, owner pledge.Address) error {
	if len(id) == 0 {
		return errors.Wrap(errors.ErrEmpty, "token ID")
	}
	if err := owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	switch err := r.bucket.Has(db, id); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "token %X", id)
	case errors.ErrNotFound.Is(err):
		// all good, the ID is free
	default:
		return err
	}
	_, err := r.bucket.Put(db, id, &Token{Owner: owner})
	return err
}

// Burn destroys the token. Only the current owner can burn.
func (r TokenRegistry) Burn(db pledge.KVStore, actor pledge.Address, id []byte) error {
	tok, err := r.load(db, id)
	if err != nil {
		return err
	}
	if !tok.Owner.Equals(actor) {
		return errors.Wrap(errors.ErrUnauthorized, "only the owner can burn")
	}
	return r.bucket.Delete(db, id)
}

// Approve allows grantee to transfer the token on behalf of the owner.
func (r TokenRegistry) Approve(db pledge.KVStore, actor pledge.Address, id []byte, grantee pledge.Address) error {
	tok, err := r.load(db, id)
	if err != nil {
		return err
	}
	if !tok.Owner.Equals(actor) {
		return errors.Wrap(errors.ErrUnauthorized, "only the owner can approve")
	}
	tok.Approved = grantee
	_, err = r.bucket.Put(db, id, tok)
	return err
}

// Transfer moves the token to a new owner. The actor must be the
// current owner or the approved address. Any approval is wiped.
func (r TokenRegistry) Transfer(db pledge.KVStore, actor pledge.Address, id []byte, newOwner pledge.Address) error {
	if err := newOwner.Validate(); err != nil {
		return errors.Wrap(err, "new owner")
	}
	if err := actor.Validate(); err != nil {
		return errors.Wrap(err, "actor")
	}
	tok, err := r.load(db, id)
	if err != nil {
		return err
	}
	approved := tok.Approved != nil && actor.Equals(tok.Approved)
	if !tok.Owner.Equals(actor) && !approved {
		return errors.Wrap(errors.ErrUnauthorized, "neither owner nor approved")
	}
	tok.Owner = newOwner
	tok.Approved = nil
	_, err = r.bucket.Put(db, id, tok)
	return err
}

// Owner returns the current owner of the token.
func (r TokenRegistry) Owner(db pledge.ReadOnlyKVStore, id []byte) (pledge.Address, error) {
	tok, err := r.load(db, id)
	if err != nil {
		return nil, err
	}
	return tok.Owner, nil
}

// Approved returns the approved address of the token, or nil.
func (r TokenRegistry) Approved(db pledge.ReadOnlyKVStore, id []byte) (pledge.Address, error) {
	tok, err := r.load(db, id)
	if err != nil {
		return nil, err
	}
	return tok.Approved, nil
}

// ByOwner returns the IDs of all tokens held by the given address.
func (r TokenRegistry) ByOwner(db pledge.ReadOnlyKVStore, owner pledge.Address) ([][]byte, error) {
	var toks []Token
	return r.bucket.ByIndex(db, ownerIndex, owner, &toks)
}

func (r TokenRegistry) load(db pledge.ReadOnlyKVStore, id []byte) (*Token, error) {
	var tok Token
	if err := r.bucket.One(db, id, &tok); err != nil {
		return nil, errors.Wrapf(err, "token %X", id)
	}
	return &tok, nil
}
