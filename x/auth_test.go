package x

import (
	"context"
	"testing"

	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/pledgetest"
)

func TestChainAuth(t *testing.T) {
	a := pledgetest.NewCondition()
	b := pledgetest.NewCondition()
	c := pledgetest.NewCondition()

	auth := ChainAuth(
		&pledgetest.Auth{Signer: a},
		&pledgetest.Auth{Signers: []pledge.Condition{b, c}},
	)

	ctx := context.Background()
	conds := auth.GetConditions(ctx)
	if len(conds) != 3 {
		t.Fatalf("want 3 conditions, got %d", len(conds))
	}
	if !auth.HasAddress(ctx, a.Address()) {
		t.Fatal("first authenticator not consulted")
	}
	if !auth.HasAddress(ctx, c.Address()) {
		t.Fatal("second authenticator not consulted")
	}
	if auth.HasAddress(ctx, pledgetest.NewCondition().Address()) {
		t.Fatal("unknown address must not authenticate")
	}
}

func TestMainSigner(t *testing.T) {
	a := pledgetest.NewCondition()
	b := pledgetest.NewCondition()
	ctx := context.Background()

	auth := &pledgetest.Auth{Signers: []pledge.Condition{a, b}}
	if got := MainSigner(ctx, auth); !got.Equals(a) {
		t.Fatalf("want the first signer, got %s", got)
	}

	if got := MainSigner(ctx, &pledgetest.Auth{}); got != nil {
		t.Fatalf("want nil for no signers, got %s", got)
	}
}

func TestGetAddresses(t *testing.T) {
	a := pledgetest.NewCondition()
	b := pledgetest.NewCondition()
	ctx := context.Background()

	auth := &pledgetest.Auth{Signers: []pledge.Condition{a, b}}
	addrs := GetAddresses(ctx, auth)
	if len(addrs) != 2 {
		t.Fatalf("want 2 addresses, got %d", len(addrs))
	}
	if !addrs[0].Equals(a.Address()) || !addrs[1].Equals(b.Address()) {
		t.Fatal("addresses must preserve signer order")
	}
}

func TestHasAllAddresses(t *testing.T) {
	a := pledgetest.NewCondition()
	b := pledgetest.NewCondition()
	c := pledgetest.NewCondition()
	ctx := context.Background()
	auth := &pledgetest.Auth{Signers: []pledge.Condition{a, b}}

	cases := map[string]struct {
		required []pledge.Address
		want     bool
	}{
		"none required":    {nil, true},
		"subset present":   {[]pledge.Address{a.Address()}, true},
		"all present":      {[]pledge.Address{a.Address(), b.Address()}, true},
		"one missing":      {[]pledge.Address{a.Address(), c.Address()}, false},
		"only the missing": {[]pledge.Address{c.Address()}, false},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := HasAllAddresses(ctx, auth, tc.required); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHasNAddresses(t *testing.T) {
	a := pledgetest.NewCondition()
	b := pledgetest.NewCondition()
	c := pledgetest.NewCondition()
	ctx := context.Background()
	auth := &pledgetest.Auth{Signers: []pledge.Condition{a, b}}
	all := []pledge.Address{a.Address(), b.Address(), c.Address()}

	cases := map[string]struct {
		n    int
		want bool
	}{
		"zero is always met":     {0, true},
		"negative is always met": {-1, true},
		"one of three":           {1, true},
		"two of three":           {2, true},
		"three of three":         {3, false},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := HasNAddresses(ctx, auth, all, tc.n); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHasNConditions(t *testing.T) {
	a := pledgetest.NewCondition()
	b := pledgetest.NewCondition()
	c := pledgetest.NewCondition()
	ctx := context.Background()
	auth := &pledgetest.Auth{Signers: []pledge.Condition{a, b}}
	all := []pledge.Condition{a, b, c}

	if !HasNConditions(ctx, auth, all, 2) {
		t.Fatal("two of three must be met")
	}
	if HasNConditions(ctx, auth, all, 3) {
		t.Fatal("three of three must not be met")
	}
	if !HasAllConditions(ctx, auth, []pledge.Condition{a, b}) {
		t.Fatal("all signed conditions must be met")
	}
	if HasAllConditions(ctx, auth, all) {
		t.Fatal("an unsigned condition must not be met")
	}
}
