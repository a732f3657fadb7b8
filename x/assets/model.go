package assets

import (
	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/orm"
)

var _ orm.CloneableData = (*Token)(nil)

// Token represents a single non fungible token, stored under the token
// ID.
type Token struct {
	// Owner is the address that controls this token.
	Owner pledge.Address
	// Approved is an optional address that is allowed to transfer the
	// token on behalf of the owner. Wiped on every transfer.
	Approved pledge.Address
}

// Marshal encodes the token in binary
func (t *Token) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(t)
}

// Unmarshal loads the token from its binary representation
func (t *Token) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, t)
}

// Validate ensures the token references a valid owner.
func (t *Token) Validate() error {
	if err := t.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if t.Approved != nil {
		if err := t.Approved.Validate(); err != nil {
			return errors.Wrap(err, "approved")
		}
	}
	return nil
}

// Copy makes a deep copy of the token
func (t *Token) Copy() orm.CloneableData {
	return &Token{
		Owner:    append(pledge.Address(nil), t.Owner...),
		Approved: append(pledge.Address(nil), t.Approved...),
	}
}

const ownerIndex = "owner"

// NewTokenBucket returns a bucket for keeping tokens, indexed by the
// owner address.
func NewTokenBucket() orm.ModelBucket {
	return orm.NewModelBucket("tokens", &Token{},
		orm.WithIndex(ownerIndex, tokenOwnerIndexer, false),
	)
}

func tokenOwnerIndexer(obj orm.Object) ([]byte, error) {
	if obj == nil || obj.Value() == nil {
		return nil, nil
	}
	tok, ok := obj.Value().(*Token)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "expected token, got %T", obj.Value())
	}
	return tok.Owner, nil
}
