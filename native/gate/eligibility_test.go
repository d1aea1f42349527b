package gate

import (
	"errors"
	"math/big"
	"testing"
)

func TestThresholdBoundaryInclusive(t *testing.T) {
	state := newMockState()
	owner := addr(0x01)
	state.owner = owner
	state.ownerSet = true
	state.cfg = &Config{Threshold: big.NewInt(1010), Quantity: 1}

	balances := newMockBalances()
	registry := NewRegistry(state)
	eligibility := NewEligibility(state, balances, registry)

	exact := addr(0x10)
	under := addr(0x11)
	balances.set(exact, 1010)
	balances.set(under, 1009)

	ok, err := eligibility.HasSufficientBalance(exact)
	if err != nil {
		t.Fatalf("exact: %v", err)
	}
	if !ok {
		t.Fatal("balance equal to threshold must qualify")
	}

	ok, err = eligibility.HasSufficientBalance(under)
	if err != nil {
		t.Fatalf("under: %v", err)
	}
	if ok {
		t.Fatal("balance of threshold-1 must not qualify")
	}
}

func TestBalancePassthrough(t *testing.T) {
	state := newMockState()
	balances := newMockBalances()
	registry := NewRegistry(state)
	eligibility := NewEligibility(state, balances, registry)

	holder := addr(0x10)
	balances.set(holder, 55)

	got, err := eligibility.Balance(holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got.Int64() != 55 {
		t.Fatalf("expected 55, got %s", got)
	}

	// Unknown addresses read as zero.
	got, err = eligibility.Balance(addr(0x99))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestUpdateThresholdOwnerOnly(t *testing.T) {
	state := newMockState()
	owner := addr(0x01)
	admin := addr(0x02)
	state.owner = owner
	state.ownerSet = true
	state.admins[admin] = struct{}{}

	registry := NewRegistry(state)
	eligibility := NewEligibility(state, newMockBalances(), registry)

	// Admins are authorized for privileged actions but configuration is
	// owner-only.
	if err := eligibility.UpdateThreshold(admin, big.NewInt(5)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("admin update: expected ErrUnauthorized, got %v", err)
	}
	if err := eligibility.UpdateThreshold(owner, nil); err == nil {
		t.Fatal("nil threshold must be rejected")
	}
	if err := eligibility.UpdateThreshold(owner, big.NewInt(-1)); err == nil {
		t.Fatal("negative threshold must be rejected")
	}
	if err := eligibility.UpdateThreshold(owner, big.NewInt(5)); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	cfg, err := state.GateConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Threshold.Int64() != 5 {
		t.Fatalf("threshold not applied: %s", cfg.Threshold)
	}
}

func TestUpdateTakesEffectImmediately(t *testing.T) {
	state := newMockState()
	owner := addr(0x01)
	state.owner = owner
	state.ownerSet = true
	state.cfg = &Config{Threshold: big.NewInt(100), Quantity: 1}

	balances := newMockBalances()
	registry := NewRegistry(state)
	eligibility := NewEligibility(state, balances, registry)

	holder := addr(0x10)
	balances.set(holder, 50)

	ok, err := eligibility.HasSufficientBalance(holder)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ok {
		t.Fatal("holder should fail under the old threshold")
	}

	// Lowering the threshold requalifies the same address with no
	// grandfathering of the earlier failure.
	if err := eligibility.UpdateThreshold(owner, big.NewInt(50)); err != nil {
		t.Fatalf("update: %v", err)
	}
	ok, err = eligibility.HasSufficientBalance(holder)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatal("holder should qualify immediately after the update")
	}
}

func TestUpdateAssetEmitsOldAndNew(t *testing.T) {
	state := newMockState()
	owner := addr(0x01)
	state.owner = owner
	state.ownerSet = true

	registry := NewRegistry(state)
	eligibility := NewEligibility(state, newMockBalances(), registry)
	sink := &recorder{}
	eligibility.SetEmitter(sink)

	next := addr(0xEE)
	if err := eligibility.UpdateAsset(owner, next); err != nil {
		t.Fatalf("update: %v", err)
	}
	updates := sink.byType(EventTypeConfigUpdated)
	if len(updates) != 1 {
		t.Fatalf("expected one config event, got %d", len(updates))
	}
	attrs := updates[0].Attributes
	if attrs["field"] != "asset" {
		t.Fatalf("unexpected field %q", attrs["field"])
	}
	if attrs["old"] == attrs["new"] {
		t.Fatal("event must carry distinct old and new values")
	}
}
