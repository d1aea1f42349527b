package token

import (
	"errors"
	"math/big"
	"strconv"
	"testing"
)

type mockState struct {
	assets      map[string]*big.Int
	credentials map[string]uint64
}

func newMockState() *mockState {
	return &mockState{
		assets:      make(map[string]*big.Int),
		credentials: make(map[string]uint64),
	}
}

func assetKey(asset, addr [20]byte) string {
	return string(asset[:]) + ":" + string(addr[:])
}

func credentialKey(addr [20]byte, tokenID uint64) string {
	return string(addr[:]) + ":" + strconv.FormatUint(tokenID, 10)
}

func (m *mockState) AssetBalance(asset [20]byte, addr [20]byte) (*big.Int, error) {
	if balance, ok := m.assets[assetKey(asset, addr)]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetAssetBalance(asset [20]byte, addr [20]byte, amount *big.Int) error {
	m.assets[assetKey(asset, addr)] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) CredentialBalance(addr [20]byte, tokenID uint64) (uint64, error) {
	return m.credentials[credentialKey(addr, tokenID)], nil
}

func (m *mockState) SetCredentialBalance(addr [20]byte, tokenID uint64, amount uint64) error {
	m.credentials[credentialKey(addr, tokenID)] = amount
	return nil
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func TestCreditAccumulates(t *testing.T) {
	ledger := NewLedger(newMockState())
	asset := addr(0xAA)
	holder := addr(0x01)

	if err := ledger.Credit(asset, holder, big.NewInt(600)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.Credit(asset, holder, big.NewInt(410)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	balance, err := ledger.BalanceOf(asset, holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Int64() != 1010 {
		t.Fatalf("expected 1010, got %s", balance)
	}
}

func TestCreditRejectsNonPositive(t *testing.T) {
	ledger := NewLedger(newMockState())
	if err := ledger.Credit(addr(0xAA), addr(0x01), big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := ledger.Credit(addr(0xAA), addr(0x01), nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil, got %v", err)
	}
}

func TestIssueAccumulatesCredentials(t *testing.T) {
	ledger := NewLedger(newMockState())
	holder := addr(0x01)

	if err := ledger.Issue(holder, 7, 2, nil); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := ledger.Issue(holder, 7, 3, nil); err != nil {
		t.Fatalf("issue: %v", err)
	}
	units, err := ledger.BalanceOfToken(holder, 7)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if units != 5 {
		t.Fatalf("expected 5 units, got %d", units)
	}
}

func TestBalanceOfTokenBatch(t *testing.T) {
	ledger := NewLedger(newMockState())
	a := addr(0x01)
	b := addr(0x02)

	if err := ledger.Issue(a, 1, 4, nil); err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := ledger.BalanceOfTokenBatch([][20]byte{a, b}, []uint64{1, 1})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if got[0] != 4 || got[1] != 0 {
		t.Fatalf("unexpected balances %v", got)
	}

	if _, err := ledger.BalanceOfTokenBatch([][20]byte{a}, []uint64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}
