package gate

import (
	"errors"
	"math/big"

	"mintgate/core/types"
)

// mockState implements every state interface the gate components need, with
// cloning semantics mirroring the persistent manager.
type mockState struct {
	owner    [20]byte
	ownerSet bool
	admins   map[[20]byte]struct{}
	minted   map[[20]byte]struct{}
	total    *big.Int
	cfg      *Config
	tokens   map[uint64]struct{}
	uris     map[uint64]string
	failPuts bool
}

func newMockState() *mockState {
	return &mockState{
		admins: make(map[[20]byte]struct{}),
		minted: make(map[[20]byte]struct{}),
		total:  big.NewInt(0),
		tokens: make(map[uint64]struct{}),
		uris:   make(map[uint64]string),
	}
}

var errMockWrite = errors.New("mock state: write refused")

func (m *mockState) GateOwner() ([20]byte, bool, error) {
	return m.owner, m.ownerSet, nil
}

func (m *mockState) GateSetOwner(addr [20]byte) error {
	if m.failPuts {
		return errMockWrite
	}
	m.owner = addr
	m.ownerSet = true
	return nil
}

func (m *mockState) GateIsAdmin(addr [20]byte) (bool, error) {
	_, ok := m.admins[addr]
	return ok, nil
}

func (m *mockState) GateAdminAdd(addr [20]byte) error {
	if m.failPuts {
		return errMockWrite
	}
	m.admins[addr] = struct{}{}
	return nil
}

func (m *mockState) GateAdminRemove(addr [20]byte) error {
	if m.failPuts {
		return errMockWrite
	}
	delete(m.admins, addr)
	return nil
}

func (m *mockState) GateAdminCount() (uint64, error) {
	return uint64(len(m.admins)), nil
}

func (m *mockState) GateAdmins() ([][20]byte, error) {
	out := make([][20]byte, 0, len(m.admins))
	for admin := range m.admins {
		out = append(out, admin)
	}
	return out, nil
}

func (m *mockState) GateMinted(addr [20]byte) (bool, error) {
	_, ok := m.minted[addr]
	return ok, nil
}

func (m *mockState) GateSetMinted(addr [20]byte) error {
	if m.failPuts {
		return errMockWrite
	}
	m.minted[addr] = struct{}{}
	return nil
}

func (m *mockState) GateClearMinted(addr [20]byte) error {
	delete(m.minted, addr)
	return nil
}

func (m *mockState) GateTotalIssued() (*big.Int, error) {
	return new(big.Int).Set(m.total), nil
}

func (m *mockState) GateSetTotalIssued(total *big.Int) error {
	if m.failPuts {
		return errMockWrite
	}
	m.total = new(big.Int).Set(total)
	return nil
}

func (m *mockState) GateConfig() (*Config, error) {
	if m.cfg == nil {
		return DefaultConfig(), nil
	}
	return m.cfg.Clone(), nil
}

func (m *mockState) GateSetConfig(cfg *Config) error {
	if m.failPuts {
		return errMockWrite
	}
	m.cfg = cfg.Clone()
	return nil
}

func (m *mockState) TokenExists(tokenID uint64) (bool, error) {
	_, ok := m.tokens[tokenID]
	return ok, nil
}

func (m *mockState) TokenMarkExists(tokenID uint64) error {
	if m.failPuts {
		return errMockWrite
	}
	m.tokens[tokenID] = struct{}{}
	return nil
}

func (m *mockState) TokenURIPrefix(tokenID uint64) (string, error) {
	return m.uris[tokenID], nil
}

func (m *mockState) TokenSetURIPrefix(tokenID uint64, prefix string) error {
	if m.failPuts {
		return errMockWrite
	}
	m.uris[tokenID] = prefix
	return nil
}

// mockBalances is a fixed-table balance oracle.
type mockBalances struct {
	balances map[[20]byte]*big.Int
}

func newMockBalances() *mockBalances {
	return &mockBalances{balances: make(map[[20]byte]*big.Int)}
}

func (m *mockBalances) set(addr [20]byte, amount int64) {
	m.balances[addr] = big.NewInt(amount)
}

func (m *mockBalances) BalanceOf(asset [20]byte, addr [20]byte) (*big.Int, error) {
	balance, ok := m.balances[addr]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

// mockIssuer records issuances and can be told to fail.
type mockIssuer struct {
	issued []MintReceipt
	fail   bool
}

var errIssueFailed = errors.New("mock issuer: refused")

func (m *mockIssuer) Issue(to [20]byte, tokenID uint64, quantity uint64, data []byte) error {
	if m.fail {
		return errIssueFailed
	}
	m.issued = append(m.issued, MintReceipt{To: to, TokenID: tokenID, Quantity: quantity})
	return nil
}

// recorder captures emitted events for assertions.
type recorder struct {
	events []*types.Event
}

func (r *recorder) Emit(evt *types.Event) {
	r.events = append(r.events, evt)
}

func (r *recorder) byType(kind string) []*types.Event {
	var out []*types.Event
	for _, evt := range r.events {
		if evt.Type == kind {
			out = append(out, evt)
		}
	}
	return out
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestStack(state *mockState, balances BalanceSource, issuer Issuer) (*Registry, *Eligibility, *Tokens, *Engine) {
	registry := NewRegistry(state)
	eligibility := NewEligibility(state, balances, registry)
	tokens := NewTokens(state, registry)
	engine := NewEngine(state, registry, eligibility, tokens, issuer)
	return registry, eligibility, tokens, engine
}
