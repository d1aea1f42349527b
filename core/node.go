package core

import (
	"fmt"
	"math/big"
	"sync"

	"mintgate/core/events"
	"mintgate/core/state"
	"mintgate/native/gate"
	"mintgate/native/token"
)

// GenesisAllocation seeds a fungible balance for one account at boot.
type GenesisAllocation struct {
	Addr   [20]byte
	Amount *big.Int
}

// Genesis describes the initial gate state applied once against an empty
// database: the owner identity, the starting admin set, the issuance
// parameters, pre-staged token URI prefixes, and asset allocations.
type Genesis struct {
	Owner           [20]byte
	Admins          [][20]byte
	Asset           [20]byte
	Threshold       *big.Int
	MintableTokenID uint64
	MintQuantity    uint64
	TokenURIs       map[uint64]string
	Allocations     []GenesisAllocation
}

// Node wires the gate components over one state manager and funnels every
// operation through a single exclusive lock. All mutations observe a strict
// happens-before order; no two calls interleave.
type Node struct {
	mu sync.Mutex

	state       *state.Manager
	registry    *gate.Registry
	eligibility *gate.Eligibility
	tokens      *gate.Tokens
	engine      *gate.Engine
	ledger      *token.Ledger
	events      *events.Buffer
}

// NewNode assembles the component stack over the supplied state manager and
// routes their events into a buffer with the given backlog capacity.
func NewNode(manager *state.Manager, backlog int) *Node {
	ledger := token.NewLedger(manager)
	registry := gate.NewRegistry(manager)
	eligibility := gate.NewEligibility(manager, assetOracle{ledger}, registry)
	tokens := gate.NewTokens(manager, registry)
	engine := gate.NewEngine(manager, registry, eligibility, tokens, ledger)

	buffer := events.NewBuffer(backlog)
	registry.SetEmitter(buffer)
	eligibility.SetEmitter(buffer)
	tokens.SetEmitter(buffer)
	engine.SetEmitter(buffer)

	return &Node{
		state:       manager,
		registry:    registry,
		eligibility: eligibility,
		tokens:      tokens,
		engine:      engine,
		ledger:      ledger,
		events:      buffer,
	}
}

// assetOracle adapts the token ledger to the balance source the eligibility
// gate consults.
type assetOracle struct {
	ledger *token.Ledger
}

func (o assetOracle) BalanceOf(asset [20]byte, addr [20]byte) (*big.Int, error) {
	return o.ledger.BalanceOf(asset, addr)
}

// ApplyGenesis seeds the gate state if and only if no owner has been recorded
// yet. A second call against an initialized database is a no-op.
func (n *Node) ApplyGenesis(genesis *Genesis) error {
	if genesis == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	_, ok, err := n.state.GateOwner()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := n.state.GateSetOwner(genesis.Owner); err != nil {
		return err
	}
	for _, admin := range genesis.Admins {
		if admin == genesis.Owner {
			continue
		}
		if err := n.state.GateAdminAdd(admin); err != nil {
			return err
		}
	}
	cfg := gate.DefaultConfig()
	cfg.Asset = genesis.Asset
	if genesis.Threshold != nil {
		cfg.Threshold = new(big.Int).Set(genesis.Threshold)
	}
	cfg.TokenID = genesis.MintableTokenID
	if genesis.MintQuantity > 0 {
		cfg.Quantity = genesis.MintQuantity
	}
	if err := n.state.GateSetConfig(cfg); err != nil {
		return err
	}
	for tokenID, prefix := range genesis.TokenURIs {
		if err := n.state.TokenSetURIPrefix(tokenID, prefix); err != nil {
			return err
		}
	}
	for _, alloc := range genesis.Allocations {
		if alloc.Amount == nil || alloc.Amount.Sign() <= 0 {
			continue
		}
		if err := n.ledger.Credit(genesis.Asset, alloc.Addr, alloc.Amount); err != nil {
			return fmt.Errorf("genesis allocation: %w", err)
		}
	}
	return nil
}

// Owner returns the current gate owner.
func (n *Node) Owner() ([20]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Owner()
}

// Admins returns the current admin set.
func (n *Node) Admins() ([][20]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Admins()
}

// AdminCount reports the size of the admin set.
func (n *Node) AdminCount() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.AdminCount()
}

// IsAuthorized reports whether addr is the owner or an admin.
func (n *Node) IsAuthorized(addr [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.IsAuthorized(addr)
}

// AddAdmin grants admin standing to admin on behalf of caller.
func (n *Node) AddAdmin(caller, admin [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.AddAdmin(caller, admin)
}

// RemoveAdmin revokes admin standing on behalf of caller.
func (n *Node) RemoveAdmin(caller, admin [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.RemoveAdmin(caller, admin)
}

// TransferOwnership reassigns the owner identity on behalf of caller.
func (n *Node) TransferOwnership(caller, newOwner [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.TransferOwnership(caller, newOwner)
}

// Balance returns caller's balance of the configured eligibility asset.
func (n *Node) Balance(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.eligibility.Balance(addr)
}

// FundBalance credits amount of the configured asset to addr. Owner only;
// this is the operational faucet backing the eligibility oracle.
func (n *Node) FundBalance(caller, addr [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	ok, err := n.registry.IsOwner(caller)
	if err != nil {
		return err
	}
	if !ok {
		return gate.ErrUnauthorized
	}
	cfg, err := n.engine.Config()
	if err != nil {
		return err
	}
	return n.ledger.Credit(cfg.Asset, addr, amount)
}

// UpdateAsset repoints the eligibility oracle at a new asset. Owner only.
func (n *Node) UpdateAsset(caller, asset [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.eligibility.UpdateAsset(caller, asset)
}

// UpdateThreshold replaces the eligibility threshold. Owner only.
func (n *Node) UpdateThreshold(caller [20]byte, threshold *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.eligibility.UpdateThreshold(caller, threshold)
}

// UpdateMintableToken retargets future mints at tokenID. Owner only.
func (n *Node) UpdateMintableToken(caller [20]byte, tokenID uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.UpdateMintableToken(caller, tokenID)
}

// UpdateMintQuantity replaces the per-mint quantity. Owner only.
func (n *Node) UpdateMintQuantity(caller [20]byte, quantity uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.UpdateMintQuantity(caller, quantity)
}

// Config returns a copy of the current issuance parameters.
func (n *Node) Config() (*gate.Config, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Config()
}

// CanSelfMint reports whether addr would succeed in a self-mint right now.
func (n *Node) CanSelfMint(addr [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.CanSelfMint(addr)
}

// HasMinted reports whether addr has consumed its self-mint.
func (n *Node) HasMinted(addr [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.HasMinted(addr)
}

// TotalIssued returns the cumulative number of issued units.
func (n *Node) TotalIssued() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.TotalIssued()
}

// SelfMint performs caller's one eligibility-gated mint.
func (n *Node) SelfMint(caller [20]byte) (*gate.MintReceipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.SelfMint(caller)
}

// BatchMint mints to every fresh recipient in list on behalf of caller.
func (n *Node) BatchMint(caller [20]byte, list [][20]byte) (*gate.BatchResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.BatchMint(caller, list)
}

// TokenExists reports whether tokenID has been minted at least once.
func (n *Node) TokenExists(tokenID uint64) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens.Exists(tokenID)
}

// TokenURI resolves the metadata URI for an existing token.
func (n *Node) TokenURI(tokenID uint64) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens.URI(tokenID)
}

// SetTokenURI stages or replaces the URI prefix for tokenID. Owner or admin.
func (n *Node) SetTokenURI(caller [20]byte, tokenID uint64, prefix string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens.SetURI(caller, tokenID, prefix)
}

// BalanceOfToken returns the credential balance for a single holder.
func (n *Node) BalanceOfToken(addr [20]byte, tokenID uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.BalanceOfToken(addr, tokenID)
}

// BalanceOfTokenBatch resolves credential balances for paired accounts and
// ids.
func (n *Node) BalanceOfTokenBatch(addrs [][20]byte, ids []uint64) ([]uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.BalanceOfTokenBatch(addrs, ids)
}

// EventsSubscribe attaches a subscriber to the event buffer starting after
// cursor. The returned cancel func detaches the subscriber.
func (n *Node) EventsSubscribe(cursor uint64) (<-chan events.Stored, func(), []events.Stored) {
	return n.events.Subscribe(cursor)
}

// EventSequence reports the sequence number of the most recent event.
func (n *Node) EventSequence() uint64 {
	return n.events.Sequence()
}
