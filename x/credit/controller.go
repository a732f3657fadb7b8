package credit

import (
	"math"
	"time"

	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/orm"
	"github.com/iov-one/pledge/x"
	"github.com/iov-one/pledge/x/assets"
	"github.com/iov-one/pledge/x/cash"
)

const (
	day = 24 * time.Hour

	// a lease defaults only once the renter fell this far behind
	gracePeriod = 3 * day
)

// ContractCondition returns the identity holding the collateral of the
// given contract while it is open. Each contract escrows under its own
// address, so releasing one collateral can never touch another.
func ContractCondition(id []byte) pledge.Condition {
	return pledge.NewCondition("credit", "seq", id)
}

// CreditController drives the contract lifecycle. All mutating operations
// run on a cache wrapped store and persist only once every balance and
// collateral movement succeeded, so a failing collaborator never leaves
// partial state behind.
type CreditController struct {
	auth   x.Authenticator
	cash   cash.Controller
	assets assets.Registry
	clock  pledge.TimeSource
	bucket orm.ModelBucket
}

// NewController returns a controller using the given collaborators and
// the standard contract bucket.
func NewController(auth x.Authenticator, cashCtrl cash.Controller, assetsReg assets.Registry, clock pledge.TimeSource) *CreditController {
	return &CreditController{
		auth:   auth,
		cash:   cashCtrl,
		assets: assetsReg,
		clock:  clock,
		bucket: NewContractBucket(),
	}
}

// Create lists a new contract. The caller posts the collateral, which
// moves into the contract escrow before the listing becomes visible. For
// loans the currently configured interest rate is stamped on the record,
// later administrative changes never alter it.
func (c *CreditController) Create(ctx pledge.Context, db pledge.CacheableKVStore, kind Kind, collateralID []byte, amount uint64, duration time.Duration, beneficiary pledge.Address) ([]byte, error) {
	cache := db.CacheWrap()
	id, err := c.create(ctx, cache, kind, collateralID, amount, duration, beneficiary)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, err
	}
	pledge.GetLogger(ctx).Info("contract listed", "id", id, "kind", kind)
	return id, nil
}

// now returns the moment this operation is evaluated at. A block time set
// on the context takes precedence over the wall clock, so all operations
// within one transaction observe the same instant.
func (c *CreditController) now(ctx pledge.Context) pledge.UnixMsTime {
	if t, ok := pledge.BlockTime(ctx); ok {
		return t
	}
	return c.clock.Now()
}

func (c *CreditController) create(ctx pledge.Context, db pledge.KVStore, kind Kind, collateralID []byte, amount uint64, duration time.Duration, beneficiary pledge.Address) ([]byte, error) {
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if !conf.Enabled {
		return nil, errors.Wrap(ErrNotEnabled, "cannot list")
	}
	signer := x.MainSigner(ctx, c.auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	principal := signer.Address()
	if beneficiary == nil {
		beneficiary = principal
	}
	var rate uint32
	if kind == Loan {
		rate = conf.InterestRate
	}
	contract := &Contract{
		Kind:         kind,
		CollateralID: collateralID,
		Principal:    principal,
		Beneficiary:  beneficiary,
		Amount:       amount,
		Rate:         rate,
		Duration:     int64(duration / time.Millisecond),
		CreatedAt:    c.now(ctx),
		Status:       Available,
	}
	id, err := c.bucket.Put(db, nil, contract)
	if err != nil {
		return nil, err
	}
	custody := ContractCondition(id).Address()
	if err := c.assets.Transfer(db, principal, collateralID, custody); err != nil {
		return nil, errors.Wrap(err, "collateral")
	}
	return id, nil
}

// Match commits the caller as the counterparty. The first payment, the
// full principal for loans and one day of rent for leases, moves to the
// beneficiary before the record is touched, and a non zero transfer fee
// is collected for the configuration owner.
func (c *CreditController) Match(ctx pledge.Context, db pledge.CacheableKVStore, contractID []byte) error {
	cache := db.CacheWrap()
	if err := c.match(ctx, cache, contractID); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return err
	}
	pledge.GetLogger(ctx).Info("contract matched", "id", contractID)
	return nil
}

func (c *CreditController) match(ctx pledge.Context, db pledge.KVStore, contractID []byte) error {
	con, err := c.load(db, contractID)
	if err != nil {
		return err
	}
	if con.Status != Available {
		return errors.Wrapf(errors.ErrState, "cannot match a %s contract", con.Status)
	}
	signer := x.MainSigner(ctx, c.auth)
	if signer == nil {
		return errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	actor := signer.Address()
	conf, err := loadConf(db)
	if err != nil {
		return err
	}
	if conf.TransferFee > 0 {
		if err := c.cash.MoveFunds(db, actor, conf.Owner, conf.TransferFee); err != nil {
			return errors.Wrap(err, "transfer fee")
		}
	}
	if err := c.cash.MoveFunds(db, actor, con.Beneficiary, con.Amount); err != nil {
		return errors.Wrap(err, "first payment")
	}
	now := c.now(ctx)
	con.Counterparty = actor
	con.MatchedAt = now
	if con.Kind == Lease {
		con.PaidUntil = now.Add(day)
	}
	con.Status = Matched
	_, err = c.bucket.Put(db, contractID, con)
	return err
}

// PayRent transfers all rent days owed since the last payment and
// advances the paid marker by exactly that many days, so a partial day is
// neither forgiven nor charged twice.
func (c *CreditController) PayRent(ctx pledge.Context, db pledge.CacheableKVStore, contractID []byte) error {
	cache := db.CacheWrap()
	if err := c.payRent(ctx, cache, contractID); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return err
	}
	pledge.GetLogger(ctx).Info("rent paid", "id", contractID)
	return nil
}

func (c *CreditController) payRent(ctx pledge.Context, db pledge.KVStore, contractID []byte) error {
	con, err := c.load(db, contractID)
	if err != nil {
		return err
	}
	if con.Kind != Lease {
		return errors.Wrap(errors.ErrType, "rent applies to leases only")
	}
	if con.Status != Matched {
		return errors.Wrapf(errors.ErrState, "cannot pay rent on a %s contract", con.Status)
	}
	if !c.auth.HasAddress(ctx, con.Counterparty) {
		return errors.Wrap(errors.ErrUnauthorized, "only the renter pays rent")
	}
	now := c.now(ctx)
	if now <= con.PaidUntil {
		return errors.Wrap(errors.ErrState, "no rent due")
	}
	days, err := DurationInDays(now, con.PaidUntil)
	if err != nil {
		return err
	}
	if days == 0 {
		return errors.Wrap(errors.ErrState, "no rent due")
	}
	if days > math.MaxUint64/con.Amount {
		return errors.Wrap(errors.ErrOverflow, "rent")
	}
	if err := c.cash.MoveFunds(db, con.Counterparty, con.Beneficiary, days*con.Amount); err != nil {
		return errors.Wrap(err, "rent payment")
	}
	con.PaidUntil = con.PaidUntil.Add(time.Duration(days) * day)
	_, err = c.bucket.Put(db, contractID, con)
	return err
}

// Settle closes a matched contract the friendly way. A borrower repays
// the principal plus accrued interest and gets the collateral back. A
// lease investor reclaims the collateral once the nominal term elapsed
// and rent through the term is paid.
func (c *CreditController) Settle(ctx pledge.Context, db pledge.CacheableKVStore, contractID []byte) error {
	cache := db.CacheWrap()
	if err := c.settle(ctx, cache, contractID); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return err
	}
	pledge.GetLogger(ctx).Info("contract settled", "id", contractID)
	return nil
}

func (c *CreditController) settle(ctx pledge.Context, db pledge.KVStore, contractID []byte) error {
	con, err := c.load(db, contractID)
	if err != nil {
		return err
	}
	if con.Status != Matched {
		return errors.Wrapf(errors.ErrState, "cannot settle a %s contract", con.Status)
	}
	if !c.auth.HasAddress(ctx, con.Principal) {
		return errors.Wrap(errors.ErrUnauthorized, "only the principal party settles")
	}
	now := c.now(ctx)
	switch con.Kind {
	case Loan:
		interest, err := Interest(con.Amount, con.Rate, now, con.MatchedAt)
		if err != nil {
			return err
		}
		if interest > math.MaxUint64-con.Amount {
			return errors.Wrap(errors.ErrOverflow, "debt")
		}
		// repayment strictly before the collateral release
		if err := c.cash.MoveFunds(db, con.Principal, con.Counterparty, con.Amount+interest); err != nil {
			return errors.Wrap(err, "repayment")
		}
	case Lease:
		end := con.MatchedAt.Add(time.Duration(con.Duration) * time.Millisecond)
		if now < end {
			return errors.Wrap(errors.ErrState, "the lease term has not elapsed")
		}
		if con.PaidUntil < end {
			return errors.Wrap(errors.ErrState, "outstanding rent")
		}
	}
	custody := ContractCondition(contractID).Address()
	if err := c.assets.Transfer(db, custody, con.CollateralID, con.Principal); err != nil {
		return errors.Wrap(err, "collateral")
	}
	con.Status = Settled
	con.SettledAt = now
	_, err = c.bucket.Put(db, contractID, con)
	return err
}

// Liquidate forfeits the collateral to the funding side of a defaulted
// contract. A lender claims once the loan term expired, a lease investor
// once the renter fell behind the grace period and the term elapsed. The
// counterparty's payment obligation is extinguished.
func (c *CreditController) Liquidate(ctx pledge.Context, db pledge.CacheableKVStore, contractID []byte) error {
	cache := db.CacheWrap()
	if err := c.liquidate(ctx, cache, contractID); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return err
	}
	pledge.GetLogger(ctx).Info("contract liquidated", "id", contractID)
	return nil
}

func (c *CreditController) liquidate(ctx pledge.Context, db pledge.KVStore, contractID []byte) error {
	con, err := c.load(db, contractID)
	if err != nil {
		return err
	}
	if con.Status != Matched {
		return errors.Wrapf(errors.ErrState, "cannot liquidate a %s contract", con.Status)
	}
	now := c.now(ctx)
	end := con.MatchedAt.Add(time.Duration(con.Duration) * time.Millisecond)
	var claimant pledge.Address
	switch con.Kind {
	case Loan:
		if !c.auth.HasAddress(ctx, con.Counterparty) {
			return errors.Wrap(errors.ErrUnauthorized, "only the lender liquidates")
		}
		if now <= end {
			return errors.Wrap(errors.ErrState, "the loan term has not expired")
		}
		claimant = con.Counterparty
	case Lease:
		if !c.auth.HasAddress(ctx, con.Principal) {
			return errors.Wrap(errors.ErrUnauthorized, "only the investor liquidates")
		}
		if now <= end {
			return errors.Wrap(errors.ErrState, "the lease term has not elapsed")
		}
		if con.PaidUntil >= now.Add(-gracePeriod) {
			return errors.Wrap(errors.ErrState, "the renter is within the grace period")
		}
		claimant = con.Principal
	}
	custody := ContractCondition(contractID).Address()
	if err := c.assets.Transfer(db, custody, con.CollateralID, claimant); err != nil {
		return errors.Wrap(err, "collateral")
	}
	con.Status = Defaulted
	con.SettledAt = now
	_, err = c.bucket.Put(db, contractID, con)
	return err
}

// Cancel delists an unmatched contract and returns the collateral to the
// principal party.
func (c *CreditController) Cancel(ctx pledge.Context, db pledge.CacheableKVStore, contractID []byte) error {
	cache := db.CacheWrap()
	if err := c.cancel(ctx, cache, contractID); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return err
	}
	pledge.GetLogger(ctx).Info("contract cancelled", "id", contractID)
	return nil
}

func (c *CreditController) cancel(ctx pledge.Context, db pledge.KVStore, contractID []byte) error {
	con, err := c.load(db, contractID)
	if err != nil {
		return err
	}
	if con.Status != Available {
		return errors.Wrapf(errors.ErrState, "cannot cancel a %s contract", con.Status)
	}
	if !c.auth.HasAddress(ctx, con.Principal) {
		return errors.Wrap(errors.ErrUnauthorized, "only the principal party cancels")
	}
	custody := ContractCondition(contractID).Address()
	if err := c.assets.Transfer(db, custody, con.CollateralID, con.Principal); err != nil {
		return errors.Wrap(err, "collateral")
	}
	con.Status = Cancelled
	con.SettledAt = c.now(ctx)
	_, err = c.bucket.Put(db, contractID, con)
	return err
}

// Contract returns the current record of the given contract.
func (c *CreditController) Contract(db pledge.ReadOnlyKVStore, contractID []byte) (*Contract, error) {
	return c.load(db, contractID)
}

// Paginated returns up to limit contracts ordered by ID, starting with
// the first ID greater or equal to offset. A zero limit returns all.
func (c *CreditController) Paginated(db pledge.ReadOnlyKVStore, offset []byte, limit int) ([][]byte, []Contract, error) {
	var cons []Contract
	ids, err := c.bucket.List(db, offset, limit, &cons)
	return ids, cons, err
}

// ByStatus returns all contracts currently in the given status.
func (c *CreditController) ByStatus(db pledge.ReadOnlyKVStore, status Status) ([][]byte, []Contract, error) {
	var cons []Contract
	ids, err := c.bucket.ByIndex(db, statusIndex, []byte{byte(status)}, &cons)
	return ids, cons, err
}

// ByPrincipal returns all contracts where the given address posted the
// collateral, including terminal ones.
func (c *CreditController) ByPrincipal(db pledge.ReadOnlyKVStore, addr pledge.Address) ([][]byte, []Contract, error) {
	var cons []Contract
	ids, err := c.bucket.ByIndex(db, principalIndex, addr, &cons)
	return ids, cons, err
}

// ByCounterparty returns all contracts funded by the given address,
// including terminal ones.
func (c *CreditController) ByCounterparty(db pledge.ReadOnlyKVStore, addr pledge.Address) ([][]byte, []Contract, error) {
	var cons []Contract
	ids, err := c.bucket.ByIndex(db, counterpartyIndex, addr, &cons)
	return ids, cons, err
}

// Debt returns the amount the borrower owes at the given moment,
// principal plus accrued interest.
func (c *CreditController) Debt(db pledge.ReadOnlyKVStore, contractID []byte, now pledge.UnixMsTime) (uint64, error) {
	con, err := c.load(db, contractID)
	if err != nil {
		return 0, err
	}
	if con.Kind != Loan {
		return 0, errors.Wrap(errors.ErrType, "debt applies to loans only")
	}
	if con.Status != Matched {
		return 0, errors.Wrapf(errors.ErrState, "no debt on a %s contract", con.Status)
	}
	interest, err := Interest(con.Amount, con.Rate, now, con.MatchedAt)
	if err != nil {
		return 0, err
	}
	if interest > math.MaxUint64-con.Amount {
		return 0, errors.Wrap(errors.ErrOverflow, "debt")
	}
	return con.Amount + interest, nil
}

// RentDue returns the rent owed at the given moment. Zero means the
// lease is paid up.
func (c *CreditController) RentDue(db pledge.ReadOnlyKVStore, contractID []byte, now pledge.UnixMsTime) (uint64, error) {
	con, err := c.load(db, contractID)
	if err != nil {
		return 0, err
	}
	if con.Kind != Lease {
		return 0, errors.Wrap(errors.ErrType, "rent applies to leases only")
	}
	if con.Status != Matched {
		return 0, errors.Wrapf(errors.ErrState, "no rent on a %s contract", con.Status)
	}
	if now <= con.PaidUntil {
		return 0, nil
	}
	days, err := DurationInDays(now, con.PaidUntil)
	if err != nil {
		return 0, err
	}
	if days > math.MaxUint64/con.Amount {
		return 0, errors.Wrap(errors.ErrOverflow, "rent")
	}
	return days * con.Amount, nil
}

// LeaseDuration returns for how many rent days the collateral has been
// leased out at the given moment.
func (c *CreditController) LeaseDuration(db pledge.ReadOnlyKVStore, contractID []byte, now pledge.UnixMsTime) (uint64, error) {
	con, err := c.load(db, contractID)
	if err != nil {
		return 0, err
	}
	if con.Kind != Lease {
		return 0, errors.Wrap(errors.ErrType, "only leases have a lease duration")
	}
	if con.Status != Matched {
		return 0, errors.Wrapf(errors.ErrState, "a %s contract is not leased out", con.Status)
	}
	return DurationInDays(now, con.MatchedAt)
}

func (c *CreditController) load(db pledge.ReadOnlyKVStore, contractID []byte) (*Contract, error) {
	var con Contract
	if err := c.bucket.One(db, contractID, &con); err != nil {
		return nil, errors.Wrapf(err, "contract %X", contractID)
	}
	return &con, nil
}
