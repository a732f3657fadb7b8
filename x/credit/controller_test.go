package credit

import (
	"context"
	"math"
	"testing"

	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/gconf"
	"github.com/iov-one/pledge/pledgetest"
	"github.com/iov-one/pledge/pledgetest/assert"
	"github.com/iov-one/pledge/store"
	"github.com/iov-one/pledge/x/assets"
	"github.com/iov-one/pledge/x/cash"
)

type env struct {
	t      *testing.T
	db     pledge.CacheableKVStore
	auth   *pledgetest.CtxAuth
	clock  *pledgetest.Clock
	cash   cash.CashController
	assets assets.TokenRegistry
	ctrl   *CreditController
	owner  pledge.Condition
}

func newEnv(t *testing.T) *env {
	db := store.MemStore()
	auth := &pledgetest.CtxAuth{Key: "auth"}
	clock := pledgetest.NewClock(dayMs)
	cashCtrl := cash.NewController()
	assetsReg := assets.NewRegistry()
	owner := pledgetest.NewCondition()
	conf := Configuration{Owner: owner.Address(), InterestRate: 10, Enabled: true}
	if err := gconf.Save(db, pkgName, &conf); err != nil {
		t.Fatalf("save configuration: %+v", err)
	}
	return &env{
		t:      t,
		db:     db,
		auth:   auth,
		clock:  clock,
		cash:   cashCtrl,
		assets: assetsReg,
		ctrl:   NewController(auth, cashCtrl, assetsReg, clock),
		owner:  owner,
	}
}

func (e *env) as(conds ...pledge.Condition) pledge.Context {
	return e.auth.SetConditions(context.Background(), conds...)
}

func (e *env) balance(addr pledge.Address) uint64 {
	e.t.Helper()
	b, err := e.cash.Balance(e.db, addr)
	assert.Nil(e.t, err)
	return b
}

func (e *env) tokenOwner(id []byte) pledge.Address {
	e.t.Helper()
	owner, err := e.assets.Owner(e.db, id)
	assert.Nil(e.t, err)
	return owner
}

func (e *env) contract(id []byte) *Contract {
	e.t.Helper()
	con, err := e.ctrl.Contract(e.db, id)
	assert.Nil(e.t, err)
	return con
}

func TestCreateRequiresEnabled(t *testing.T) {
	e := newEnv(t)
	borrower := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, borrower.Address()))
	assert.Nil(t, e.ctrl.Disable(e.as(e.owner), e.db))

	_, err := e.ctrl.Create(e.as(borrower), e.db, Loan, nft, 1000, 30*day, nil)
	assert.IsErr(t, ErrNotEnabled, err)

	// nothing was listed and the collateral did not move
	assert.Equal(t, borrower.Address(), e.tokenOwner(nft))
	ids, _, err := e.ctrl.Paginated(e.db, nil, 0)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(ids))
}

func TestCreateAndCancel(t *testing.T) {
	e := newEnv(t)
	borrower := pledgetest.NewCondition()
	stranger := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, borrower.Address()))

	id, err := e.ctrl.Create(e.as(borrower), e.db, Loan, nft, 1000, 30*day, nil)
	assert.Nil(t, err)

	// the collateral is held by the contract escrow
	assert.Equal(t, ContractCondition(id).Address(), e.tokenOwner(nft))
	con := e.contract(id)
	assert.Equal(t, Available, con.Status)
	assert.Equal(t, uint32(10), con.Rate)
	assert.Equal(t, borrower.Address(), con.Beneficiary)
	if con.Counterparty != nil {
		t.Fatalf("unexpected counterparty: %s", con.Counterparty)
	}

	assert.IsErr(t, errors.ErrUnauthorized, e.ctrl.Cancel(e.as(stranger), e.db, id))
	assert.Nil(t, e.ctrl.Cancel(e.as(borrower), e.db, id))
	assert.Equal(t, borrower.Address(), e.tokenOwner(nft))
	con = e.contract(id)
	assert.Equal(t, Cancelled, con.Status)
	if con.Counterparty != nil {
		t.Fatalf("unexpected counterparty: %s", con.Counterparty)
	}

	// terminal states are sinks
	assert.IsErr(t, errors.ErrState, e.ctrl.Match(e.as(stranger), e.db, id))
	assert.IsErr(t, errors.ErrState, e.ctrl.Cancel(e.as(borrower), e.db, id))
}

func TestCreateWithoutCollateral(t *testing.T) {
	e := newEnv(t)
	borrower := pledgetest.NewCondition()
	other := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, other.Address()))

	// the caller does not own the collateral, no record may persist
	_, err := e.ctrl.Create(e.as(borrower), e.db, Loan, nft, 1000, 30*day, nil)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	ids, _, err := e.ctrl.Paginated(e.db, nil, 0)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(ids))
}

func TestMatchLoan(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.ctrl.SetTransferFee(e.as(e.owner), e.db, 50))
	borrower := pledgetest.NewCondition()
	investor := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, borrower.Address()))
	assert.Nil(t, e.cash.IssueFunds(e.db, investor.Address(), 1050))

	id, err := e.ctrl.Create(e.as(borrower), e.db, Loan, nft, 1000, 30*day, nil)
	assert.Nil(t, err)
	assert.Nil(t, e.ctrl.Match(e.as(investor), e.db, id))

	con := e.contract(id)
	assert.Equal(t, Matched, con.Status)
	assert.Equal(t, investor.Address(), con.Counterparty)
	assert.Equal(t, e.clock.Now(), con.MatchedAt)

	// principal to the beneficiary, fee to the configuration owner
	assert.Equal(t, uint64(0), e.balance(investor.Address()))
	assert.Equal(t, uint64(1000), e.balance(borrower.Address()))
	assert.Equal(t, uint64(50), e.balance(e.owner.Address()))
}

func TestMatchFailureLeavesNoTrace(t *testing.T) {
	e := newEnv(t)
	borrower := pledgetest.NewCondition()
	investor := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, borrower.Address()))
	assert.Nil(t, e.cash.IssueFunds(e.db, investor.Address(), 500))

	id, err := e.ctrl.Create(e.as(borrower), e.db, Loan, nft, 1000, 30*day, nil)
	assert.Nil(t, err)
	err = e.ctrl.Match(e.as(investor), e.db, id)
	assert.IsErr(t, errors.ErrInsufficientAmount, err)

	// the failed payment left the contract and the balances untouched
	con := e.contract(id)
	assert.Equal(t, Available, con.Status)
	if con.Counterparty != nil {
		t.Fatalf("unexpected counterparty: %s", con.Counterparty)
	}
	assert.Equal(t, uint64(500), e.balance(investor.Address()))
	assert.Equal(t, uint64(0), e.balance(borrower.Address()))
}

func TestSettleLoan(t *testing.T) {
	e := newEnv(t)
	borrower := pledgetest.NewCondition()
	investor := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, borrower.Address()))
	assert.Nil(t, e.cash.IssueFunds(e.db, investor.Address(), 1_000_000_000_000))

	id, err := e.ctrl.Create(e.as(borrower), e.db, Loan, nft, 1_000_000_000_000, 400*day, nil)
	assert.Nil(t, err)
	assert.Nil(t, e.ctrl.Match(e.as(investor), e.db, id))

	// one year later the borrower owes principal plus compound interest
	e.clock.Set(dayMs + 365*dayMs)
	debt, err := e.ctrl.Debt(e.db, id, e.clock.Now())
	assert.Nil(t, err)
	assert.Equal(t, uint64(1_105_155_781_613), debt)

	// the borrower holds the principal, top up with the interest
	assert.Nil(t, e.cash.IssueFunds(e.db, borrower.Address(), 105_155_781_613))
	assert.IsErr(t, errors.ErrUnauthorized, e.ctrl.Settle(e.as(investor), e.db, id))
	assert.Nil(t, e.ctrl.Settle(e.as(borrower), e.db, id))

	assert.Equal(t, borrower.Address(), e.tokenOwner(nft))
	assert.Equal(t, uint64(1_105_155_781_613), e.balance(investor.Address()))
	assert.Equal(t, uint64(0), e.balance(borrower.Address()))
	con := e.contract(id)
	assert.Equal(t, Settled, con.Status)
	assert.Equal(t, e.clock.Now(), con.SettledAt)

	// settling twice must fail
	assert.IsErr(t, errors.ErrState, e.ctrl.Settle(e.as(borrower), e.db, id))
}

func TestLiquidateLoan(t *testing.T) {
	e := newEnv(t)
	borrower := pledgetest.NewCondition()
	investor := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, borrower.Address()))
	assert.Nil(t, e.cash.IssueFunds(e.db, investor.Address(), 1000))

	id, err := e.ctrl.Create(e.as(borrower), e.db, Loan, nft, 1000, 30*day, nil)
	assert.Nil(t, err)
	assert.Nil(t, e.ctrl.Match(e.as(investor), e.db, id))

	// rejected while the term runs, even by the lender
	e.clock.Set(dayMs + 30*dayMs)
	assert.IsErr(t, errors.ErrState, e.ctrl.Liquidate(e.as(investor), e.db, id))

	e.clock.AdvanceDays(1)
	assert.IsErr(t, errors.ErrUnauthorized, e.ctrl.Liquidate(e.as(borrower), e.db, id))
	assert.Nil(t, e.ctrl.Liquidate(e.as(investor), e.db, id))

	assert.Equal(t, investor.Address(), e.tokenOwner(nft))
	con := e.contract(id)
	assert.Equal(t, Defaulted, con.Status)

	// the defaulted loan cannot be settled anymore
	assert.IsErr(t, errors.ErrState, e.ctrl.Settle(e.as(borrower), e.db, id))
}

func TestLeaseLifecycle(t *testing.T) {
	e := newEnv(t)
	investor := pledgetest.NewCondition()
	renter := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, investor.Address()))
	assert.Nil(t, e.cash.IssueFunds(e.db, renter.Address(), 1000))

	id, err := e.ctrl.Create(e.as(investor), e.db, Lease, nft, 100, 10*day, nil)
	assert.Nil(t, err)
	con := e.contract(id)
	assert.Equal(t, uint32(0), con.Rate)

	// matching pays the first day of rent up front
	assert.Nil(t, e.ctrl.Match(e.as(renter), e.db, id))
	con = e.contract(id)
	assert.Equal(t, Matched, con.Status)
	assert.Equal(t, e.clock.Now().Add(day), con.PaidUntil)
	assert.Equal(t, uint64(100), e.balance(investor.Address()))

	// nothing is due yet
	due, err := e.ctrl.RentDue(e.db, id, e.clock.Now())
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), due)
	assert.IsErr(t, errors.ErrState, e.ctrl.PayRent(e.as(renter), e.db, id))

	// two days behind
	e.clock.AdvanceDays(3)
	due, err = e.ctrl.RentDue(e.db, id, e.clock.Now())
	assert.Nil(t, err)
	assert.Equal(t, uint64(200), due)

	assert.IsErr(t, errors.ErrUnauthorized, e.ctrl.PayRent(e.as(investor), e.db, id))
	assert.Nil(t, e.ctrl.PayRent(e.as(renter), e.db, id))
	assert.Equal(t, uint64(700), e.balance(renter.Address()))
	assert.Equal(t, uint64(300), e.balance(investor.Address()))
	con = e.contract(id)
	assert.Equal(t, pledge.UnixMsTime(4*dayMs), con.PaidUntil)

	// paid up again
	assert.IsErr(t, errors.ErrState, e.ctrl.PayRent(e.as(renter), e.db, id))

	days, err := e.ctrl.LeaseDuration(e.db, id, e.clock.Now())
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), days)
}

func TestSettleLease(t *testing.T) {
	e := newEnv(t)
	investor := pledgetest.NewCondition()
	renter := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, investor.Address()))
	assert.Nil(t, e.cash.IssueFunds(e.db, renter.Address(), 400))

	id, err := e.ctrl.Create(e.as(investor), e.db, Lease, nft, 100, 3*day, nil)
	assert.Nil(t, err)
	assert.Nil(t, e.ctrl.Match(e.as(renter), e.db, id))

	// the nominal term has not elapsed
	assert.IsErr(t, errors.ErrState, e.ctrl.Settle(e.as(investor), e.db, id))

	e.clock.Set(5 * dayMs)
	// outstanding rent blocks reclaiming the collateral
	assert.IsErr(t, errors.ErrState, e.ctrl.Settle(e.as(investor), e.db, id))

	assert.Nil(t, e.ctrl.PayRent(e.as(renter), e.db, id))
	assert.IsErr(t, errors.ErrUnauthorized, e.ctrl.Settle(e.as(renter), e.db, id))
	assert.Nil(t, e.ctrl.Settle(e.as(investor), e.db, id))

	assert.Equal(t, investor.Address(), e.tokenOwner(nft))
	con := e.contract(id)
	assert.Equal(t, Settled, con.Status)
	assert.Equal(t, uint64(400), e.balance(investor.Address()))
}

func TestLiquidateLease(t *testing.T) {
	e := newEnv(t)
	investor := pledgetest.NewCondition()
	renter := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, investor.Address()))
	assert.Nil(t, e.cash.IssueFunds(e.db, renter.Address(), 100))

	id, err := e.ctrl.Create(e.as(investor), e.db, Lease, nft, 100, 2*day, nil)
	assert.Nil(t, err)
	assert.Nil(t, e.ctrl.Match(e.as(renter), e.db, id))

	// the term elapsed but the renter is still within the grace period
	e.clock.Set(4 * dayMs)
	assert.IsErr(t, errors.ErrState, e.ctrl.Liquidate(e.as(investor), e.db, id))

	e.clock.Set(5*dayMs + 1000)
	assert.IsErr(t, errors.ErrUnauthorized, e.ctrl.Liquidate(e.as(renter), e.db, id))
	assert.Nil(t, e.ctrl.Liquidate(e.as(investor), e.db, id))

	assert.Equal(t, investor.Address(), e.tokenOwner(nft))
	con := e.contract(id)
	assert.Equal(t, Defaulted, con.Status)
}

func TestPayRentOverflow(t *testing.T) {
	e := newEnv(t)
	investor := pledgetest.NewCondition()
	renter := pledgetest.NewCondition()
	nft := []byte("nft-1")
	rent := uint64(math.MaxUint64/2 + 1)
	assert.Nil(t, e.assets.Mint(e.db, nft, investor.Address()))
	assert.Nil(t, e.cash.IssueFunds(e.db, renter.Address(), rent))

	id, err := e.ctrl.Create(e.as(investor), e.db, Lease, nft, rent, 30*day, nil)
	assert.Nil(t, err)
	assert.Nil(t, e.ctrl.Match(e.as(renter), e.db, id))

	// two days behind, twice the daily rent does not fit a uint64
	e.clock.AdvanceDays(3)
	assert.IsErr(t, errors.ErrOverflow, e.ctrl.PayRent(e.as(renter), e.db, id))
}

func TestBlockTimeOverridesClock(t *testing.T) {
	e := newEnv(t)
	borrower := pledgetest.NewCondition()
	investor := pledgetest.NewCondition()
	nft := []byte("nft-1")
	assert.Nil(t, e.assets.Mint(e.db, nft, borrower.Address()))
	assert.Nil(t, e.cash.IssueFunds(e.db, investor.Address(), 1000))

	id, err := e.ctrl.Create(e.as(borrower), e.db, Loan, nft, 1000, 30*day, nil)
	assert.Nil(t, err)

	// a block time fixed on the context wins over the wall clock
	ctx := pledge.WithBlockTime(e.as(investor), 7*dayMs)
	assert.Nil(t, e.ctrl.Match(ctx, e.db, id))
	con := e.contract(id)
	assert.Equal(t, pledge.UnixMsTime(7*dayMs), con.MatchedAt)
}

func TestQueries(t *testing.T) {
	e := newEnv(t)
	alice := pledgetest.NewCondition()
	bob := pledgetest.NewCondition()
	for i, cond := range []pledge.Condition{alice, alice, bob} {
		nft := []byte{byte('a' + i)}
		assert.Nil(t, e.assets.Mint(e.db, nft, cond.Address()))
	}
	assert.Nil(t, e.cash.IssueFunds(e.db, bob.Address(), 1000))

	id1, err := e.ctrl.Create(e.as(alice), e.db, Loan, []byte{'a'}, 1000, 30*day, nil)
	assert.Nil(t, err)
	id2, err := e.ctrl.Create(e.as(alice), e.db, Lease, []byte{'b'}, 100, 30*day, nil)
	assert.Nil(t, err)
	id3, err := e.ctrl.Create(e.as(bob), e.db, Loan, []byte{'c'}, 500, 30*day, nil)
	assert.Nil(t, err)
	assert.Nil(t, e.ctrl.Match(e.as(bob), e.db, id1))

	ids, cons, err := e.ctrl.ByPrincipal(e.db, alice.Address())
	assert.Nil(t, err)
	assert.Equal(t, 2, len(ids))
	assert.Equal(t, 2, len(cons))

	ids, _, err = e.ctrl.ByCounterparty(e.db, bob.Address())
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{id1}, ids)

	ids, _, err = e.ctrl.ByStatus(e.db, Available)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(ids))
	ids, _, err = e.ctrl.ByStatus(e.db, Matched)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{id1}, ids)

	// terminal transitions move the status index but keep party history
	assert.Nil(t, e.ctrl.Cancel(e.as(alice), e.db, id2))
	ids, _, err = e.ctrl.ByStatus(e.db, Available)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{id3}, ids)
	ids, _, err = e.ctrl.ByStatus(e.db, Cancelled)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{id2}, ids)
	ids, _, err = e.ctrl.ByPrincipal(e.db, alice.Address())
	assert.Nil(t, err)
	assert.Equal(t, 2, len(ids))

	// pagination walks the IDs in order
	ids, _, err = e.ctrl.Paginated(e.db, nil, 0)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{id1, id2, id3}, ids)
	ids, _, err = e.ctrl.Paginated(e.db, nil, 2)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{id1, id2}, ids)
	ids, _, err = e.ctrl.Paginated(e.db, id3, 0)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{id3}, ids)
}
