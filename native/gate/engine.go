package gate

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"mintgate/core/events"
	"mintgate/core/types"
	"mintgate/observability"
)

// Issuer is the external primitive that materializes credential ownership.
// The engine calls it only after its own invariants pass and treats any
// failure as fatal for that single mint.
type Issuer interface {
	Issue(to [20]byte, tokenID uint64, quantity uint64, data []byte) error
}

type ledgerState interface {
	GateMinted(addr [20]byte) (bool, error)
	GateSetMinted(addr [20]byte) error
	GateClearMinted(addr [20]byte) error
	GateTotalIssued() (*big.Int, error)
	GateSetTotalIssued(total *big.Int) error
	GateConfig() (*Config, error)
	GateSetConfig(cfg *Config) error
}

// Engine is the issuance ledger: it enforces the at-most-once rule per
// address, keeps the aggregate counter, and delegates credential creation to
// the external issuance primitive.
type Engine struct {
	state       ledgerState
	registry    *Registry
	eligibility *Eligibility
	tokens      *Tokens
	issuer      Issuer
	emitter     events.Emitter
	telemetry   *observability.GateMetrics
}

// NewEngine wires the issuance engine with its collaborators.
func NewEngine(state ledgerState, registry *Registry, eligibility *Eligibility, tokens *Tokens, issuer Issuer) *Engine {
	return &Engine{
		state:       state,
		registry:    registry,
		eligibility: eligibility,
		tokens:      tokens,
		issuer:      issuer,
		emitter:     events.NoopEmitter{},
		telemetry:   observability.Gate(),
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil || e.registry == nil || e.eligibility == nil || e.tokens == nil || e.issuer == nil {
		return ErrNilState
	}
	return nil
}

// HasMinted reports whether the address has already received its issuance.
func (e *Engine) HasMinted(addr [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.GateMinted(addr)
}

// TotalIssued returns the monotonically increasing sum of quantities issued.
func (e *Engine) TotalIssued() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.GateTotalIssued()
}

// Config returns a copy of the current issuance parameters.
func (e *Engine) Config() (*Config, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.state.GateConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// CanSelfMint is the pure view of the self-mint preconditions: the address
// has not minted yet and currently meets the balance threshold. No side
// effects.
func (e *Engine) CanSelfMint(addr [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	minted, err := e.state.GateMinted(addr)
	if err != nil {
		return false, err
	}
	if minted {
		return false, nil
	}
	return e.eligibility.HasSufficientBalance(addr)
}

// SelfMint performs the one-shot self-service issuance for the caller. The
// precondition checks never touch the ledger; once they pass, the ledger
// transition, the counter update, and the delegated issuance succeed or fail
// as a unit.
func (e *Engine) SelfMint(caller [20]byte) (*MintReceipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	minted, err := e.state.GateMinted(caller)
	if err != nil {
		return nil, err
	}
	if minted {
		return nil, ErrAlreadyMinted
	}
	eligible, err := e.eligibility.HasSufficientBalance(caller)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrInsufficientBalance
	}
	cfg, err := e.state.GateConfig()
	if err != nil {
		return nil, err
	}
	receipt, err := e.mintOne(caller, cfg)
	if err != nil {
		return nil, err
	}
	e.telemetry.ObserveMint("self")
	return receipt, nil
}

// BatchMint issues to every address in the list, in order, skipping entries
// that already minted (no error, no event). Gated on IsOwner, not
// IsAuthorized: admins deliberately cannot batch-issue. The balance gate is
// bypassed on this path; batch issuance is a trusted administrative
// override.
//
// The batch is NOT atomic as a whole. Each entry's transition is its own
// atomic unit; if the issuance primitive fails on an entry, prior entries in
// the same call stand and the partial result is returned alongside the
// error.
func (e *Engine) BatchMint(caller [20]byte, list [][20]byte) (*BatchResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	isOwner, err := e.registry.IsOwner(caller)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		return nil, ErrUnauthorized
	}
	result := &BatchResult{BatchID: uuid.NewString()}
	cfg, err := e.state.GateConfig()
	if err != nil {
		return nil, err
	}
	for _, addr := range list {
		minted, err := e.state.GateMinted(addr)
		if err != nil {
			return result, err
		}
		if minted {
			result.Skipped = append(result.Skipped, addr)
			e.telemetry.ObserveBatchSkip()
			continue
		}
		if _, err := e.mintOne(addr, cfg); err != nil {
			return result, fmt.Errorf("batch %s: %w", result.BatchID, err)
		}
		result.Issued = append(result.Issued, addr)
		e.telemetry.ObserveMint("batch")
	}
	return result, nil
}

// mintOne applies the shared transition: flag the address, bump the counter,
// delegate to the issuance primitive, record token existence, emit. A
// primitive failure unwinds the flag and the counter so the entry never
// half-applies.
func (e *Engine) mintOne(to [20]byte, cfg *Config) (*MintReceipt, error) {
	if err := e.state.GateSetMinted(to); err != nil {
		return nil, err
	}
	total, err := e.state.GateTotalIssued()
	if err != nil {
		return nil, err
	}
	updated := new(big.Int).Add(total, new(big.Int).SetUint64(cfg.Quantity))
	if err := e.state.GateSetTotalIssued(updated); err != nil {
		return nil, err
	}
	if err := e.issuer.Issue(to, cfg.TokenID, cfg.Quantity, nil); err != nil {
		if clearErr := e.state.GateClearMinted(to); clearErr != nil {
			return nil, fmt.Errorf("gate: issuance failed (%v) and rollback failed: %w", err, clearErr)
		}
		if restoreErr := e.state.GateSetTotalIssued(total); restoreErr != nil {
			return nil, fmt.Errorf("gate: issuance failed (%v) and rollback failed: %w", err, restoreErr)
		}
		return nil, err
	}
	if err := e.tokens.MarkExists(cfg.TokenID); err != nil {
		return nil, err
	}
	e.emit(NewTokenMintedEvent(to, cfg.TokenID, cfg.Quantity))
	totalF, _ := new(big.Float).SetInt(updated).Float64()
	e.telemetry.SetTotalIssued(totalF)
	return &MintReceipt{To: to, TokenID: cfg.TokenID, Quantity: cfg.Quantity}, nil
}

// UpdateMintableToken changes the token identifier issued by future mints.
// Owner-only; past issuance records are immutable.
func (e *Engine) UpdateMintableToken(caller [20]byte, tokenID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	isOwner, err := e.registry.IsOwner(caller)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrUnauthorized
	}
	cfg, err := e.state.GateConfig()
	if err != nil {
		return err
	}
	old := cfg.TokenID
	cfg.TokenID = tokenID
	if err := e.state.GateSetConfig(cfg); err != nil {
		return err
	}
	e.emit(NewConfigUpdatedEvent("mintableTokenId",
		fmt.Sprintf("%d", old), fmt.Sprintf("%d", tokenID)))
	e.telemetry.ObserveConfigUpdate("mintableTokenId")
	return nil
}

// UpdateMintQuantity changes the quantity issued per address by future
// mints. Owner-only; zero is rejected with ErrInvalidQuantity.
func (e *Engine) UpdateMintQuantity(caller [20]byte, quantity uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	isOwner, err := e.registry.IsOwner(caller)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrUnauthorized
	}
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	cfg, err := e.state.GateConfig()
	if err != nil {
		return err
	}
	old := cfg.Quantity
	cfg.Quantity = quantity
	if err := e.state.GateSetConfig(cfg); err != nil {
		return err
	}
	e.emit(NewConfigUpdatedEvent("mintQuantity",
		fmt.Sprintf("%d", old), fmt.Sprintf("%d", quantity)))
	e.telemetry.ObserveConfigUpdate("mintQuantity")
	return nil
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}
