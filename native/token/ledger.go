package token

import (
	"errors"
	"math/big"
)

var (
	ErrNilState       = errors.New("token: state not configured")
	ErrInvalidAmount  = errors.New("token: amount must be positive")
	ErrLengthMismatch = errors.New("token: accounts and ids length mismatch")
)

type ledgerState interface {
	AssetBalance(asset [20]byte, addr [20]byte) (*big.Int, error)
	SetAssetBalance(asset [20]byte, addr [20]byte, amount *big.Int) error
	CredentialBalance(addr [20]byte, tokenID uint64) (uint64, error)
	SetCredentialBalance(addr [20]byte, tokenID uint64, amount uint64) error
}

// Ledger holds the two external primitives the gate depends on: the fungible
// asset balances consulted by the eligibility oracle, and the credential
// balances materialized by the issuance primitive. The gate core never
// mutates asset balances; credits come from genesis allocations and the
// owner faucet.
type Ledger struct {
	state ledgerState
}

// NewLedger constructs a ledger over the supplied state backend.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

// BalanceOf returns the fungible balance of addr for the given asset. This
// is the read the eligibility gate treats as its balance oracle.
func (l *Ledger) BalanceOf(asset [20]byte, addr [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	balance, err := l.state.AssetBalance(asset, addr)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	return balance, nil
}

// Credit adds amount to addr's fungible balance of asset.
func (l *Ledger) Credit(asset [20]byte, addr [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.state.AssetBalance(asset, addr)
	if err != nil {
		return err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	return l.state.SetAssetBalance(asset, addr, new(big.Int).Add(balance, amount))
}

// Issue materializes quantity units of tokenID for the recipient. The data
// payload is accepted for interface compatibility and ignored.
func (l *Ledger) Issue(to [20]byte, tokenID uint64, quantity uint64, data []byte) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if quantity == 0 {
		return ErrInvalidAmount
	}
	balance, err := l.state.CredentialBalance(to, tokenID)
	if err != nil {
		return err
	}
	return l.state.SetCredentialBalance(to, tokenID, balance+quantity)
}

// BalanceOfToken returns the credential balance for a single holder. Used by
// observers and tests, not by the gate core.
func (l *Ledger) BalanceOfToken(addr [20]byte, tokenID uint64) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, ErrNilState
	}
	return l.state.CredentialBalance(addr, tokenID)
}

// BalanceOfTokenBatch resolves credential balances for paired accounts and
// token ids. The two slices must be the same length.
func (l *Ledger) BalanceOfTokenBatch(addrs [][20]byte, ids []uint64) ([]uint64, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	if len(addrs) != len(ids) {
		return nil, ErrLengthMismatch
	}
	out := make([]uint64, len(addrs))
	for i := range addrs {
		balance, err := l.state.CredentialBalance(addrs[i], ids[i])
		if err != nil {
			return nil, err
		}
		out[i] = balance
	}
	return out, nil
}
