package credit

import (
	"fmt"

	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/orm"
)

// Kind tells whether a contract lends funds against the collateral or
// leases out the collateral itself.
type Kind int32

const (
	Loan  Kind = 1
	Lease Kind = 2
)

// Validate returns an error if this is not a known kind.
func (k Kind) Validate() error {
	switch k {
	case Loan, Lease:
		return nil
	default:
		return errors.Wrapf(errors.ErrInput, "invalid kind: %d", k)
	}
}

func (k Kind) String() string {
	switch k {
	case Loan:
		return "loan"
	case Lease:
		return "lease"
	default:
		return fmt.Sprintf("invalid (%d)", int32(k))
	}
}

// Status is the lifecycle state of a contract. Settled, Defaulted and
// Cancelled are terminal.
type Status int32

const (
	Available Status = 1
	Matched   Status = 2
	Settled   Status = 3
	Defaulted Status = 4
	Cancelled Status = 5
)

// Validate returns an error if this is not a known status.
func (s Status) Validate() error {
	switch s {
	case Available, Matched, Settled, Defaulted, Cancelled:
		return nil
	default:
		return errors.Wrapf(errors.ErrInput, "invalid status: %d", s)
	}
}

func (s Status) String() string {
	switch s {
	case Available:
		return "available"
	case Matched:
		return "matched"
	case Settled:
		return "settled"
	case Defaulted:
		return "defaulted"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("invalid (%d)", int32(s))
	}
}

var _ orm.CloneableData = (*Contract)(nil)

// Contract is a single loan or lease record, stored under its 8 byte
// sequence ID. Records are never deleted, terminal contracts stay
// queryable forever.
type Contract struct {
	// Kind selects the accrual policy, Loan or Lease.
	Kind Kind
	// CollateralID references the token held in escrow for this
	// contract.
	CollateralID []byte
	// Principal is the party that posted the collateral, the borrower
	// for loans and the investor for leases.
	Principal pledge.Address
	// Counterparty funds the contract, the investor for loans and the
	// renter for leases. Nil until the contract is matched.
	Counterparty pledge.Address
	// Beneficiary receives the fungible payments. Defaults to the
	// principal party.
	Beneficiary pledge.Address
	// Amount is the principal for loans and the rent per day for
	// leases.
	Amount uint64
	// Rate is the whole percent yearly interest rate, stamped from the
	// configuration when a loan is listed. Always zero for leases.
	Rate uint32
	// Duration is the contract term in milliseconds, counted from the
	// moment of matching.
	Duration int64
	// CreatedAt is the listing time.
	CreatedAt pledge.UnixMsTime
	// MatchedAt is the funding time, zero until matched.
	MatchedAt pledge.UnixMsTime
	// PaidUntil is the moment through which lease rent is paid. Unused
	// for loans.
	PaidUntil pledge.UnixMsTime
	// SettledAt is the moment of reaching a terminal status.
	SettledAt pledge.UnixMsTime
	// Status is the current lifecycle state.
	Status Status
}

// Marshal encodes the contract in binary.
func (c *Contract) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(c)
}

// Unmarshal loads the contract from its binary representation.
func (c *Contract) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, c)
}

// Validate ensures the record is internally consistent. In particular the
// counterparty must be set exactly while funds are committed.
func (c *Contract) Validate() error {
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	if err := c.Status.Validate(); err != nil {
		return err
	}
	if len(c.CollateralID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "collateral ID")
	}
	if err := c.Principal.Validate(); err != nil {
		return errors.Wrap(err, "principal")
	}
	if err := c.Beneficiary.Validate(); err != nil {
		return errors.Wrap(err, "beneficiary")
	}
	if c.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount")
	}
	if c.Duration <= 0 {
		return errors.Wrap(errors.ErrInput, "duration")
	}
	if c.CreatedAt.IsZero() {
		return errors.Wrap(errors.ErrEmpty, "created at")
	}
	if c.Kind == Lease && c.Rate != 0 {
		return errors.Wrap(errors.ErrInput, "a lease carries no interest rate")
	}
	funded := c.Status == Matched || c.Status == Settled || c.Status == Defaulted
	if funded {
		if err := c.Counterparty.Validate(); err != nil {
			return errors.Wrap(err, "counterparty")
		}
		if c.MatchedAt.IsZero() {
			return errors.Wrap(errors.ErrEmpty, "matched at")
		}
	} else if c.Counterparty != nil {
		return errors.Wrap(errors.ErrState, "counterparty before match")
	}
	return nil
}

// Copy makes a deep copy of the contract.
func (c *Contract) Copy() orm.CloneableData {
	cpy := *c
	cpy.CollateralID = append([]byte(nil), c.CollateralID...)
	cpy.Principal = append(pledge.Address(nil), c.Principal...)
	cpy.Counterparty = append(pledge.Address(nil), c.Counterparty...)
	cpy.Beneficiary = append(pledge.Address(nil), c.Beneficiary...)
	return &cpy
}

const (
	principalIndex    = "principal"
	counterpartyIndex = "counterparty"
	statusIndex       = "status"
)

// NewContractBucket returns the bucket keeping all contracts, indexed by
// both parties and by status.
func NewContractBucket() orm.ModelBucket {
	return orm.NewModelBucket("credit", &Contract{},
		orm.WithIndex(principalIndex, contractPrincipalIndexer, false),
		orm.WithIndex(counterpartyIndex, contractCounterpartyIndexer, false),
		orm.WithIndex(statusIndex, contractStatusIndexer, false),
	)
}

func asContract(obj orm.Object) (*Contract, error) {
	if obj == nil || obj.Value() == nil {
		return nil, nil
	}
	con, ok := obj.Value().(*Contract)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "expected contract, got %T", obj.Value())
	}
	return con, nil
}

func contractPrincipalIndexer(obj orm.Object) ([]byte, error) {
	con, err := asContract(obj)
	if con == nil || err != nil {
		return nil, err
	}
	return con.Principal, nil
}

func contractCounterpartyIndexer(obj orm.Object) ([]byte, error) {
	con, err := asContract(obj)
	if con == nil || err != nil {
		return nil, err
	}
	// nil until matched, which keeps the record out of the index
	return con.Counterparty, nil
}

func contractStatusIndexer(obj orm.Object) ([]byte, error) {
	con, err := asContract(obj)
	if con == nil || err != nil {
		return nil, err
	}
	return []byte{byte(con.Status)}, nil
}
