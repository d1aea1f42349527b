package gate

import (
	"fmt"
	"math/big"

	"mintgate/core/events"
	"mintgate/core/types"
	"mintgate/observability"
)

// BalanceSource is the external oracle consulted by the eligibility gate. It
// is read-only from the gate's perspective.
type BalanceSource interface {
	BalanceOf(asset [20]byte, addr [20]byte) (*big.Int, error)
}

type configState interface {
	GateConfig() (*Config, error)
	GateSetConfig(cfg *Config) error
}

// Eligibility decides whether an address currently qualifies for a
// self-service mint: its balance of the configured asset must meet the
// configured threshold. Equal balance qualifies.
type Eligibility struct {
	state     configState
	balances  BalanceSource
	registry  *Registry
	emitter   events.Emitter
	telemetry *observability.GateMetrics
}

// NewEligibility constructs the gate over the supplied config state and
// balance oracle.
func NewEligibility(state configState, balances BalanceSource, registry *Registry) *Eligibility {
	return &Eligibility{
		state:     state,
		balances:  balances,
		registry:  registry,
		emitter:   events.NoopEmitter{},
		telemetry: observability.Gate(),
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (g *Eligibility) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		g.emitter = events.NoopEmitter{}
		return
	}
	g.emitter = emitter
}

// Balance returns the oracle balance of the configured asset for the
// supplied address. Pure passthrough, no side effects.
func (g *Eligibility) Balance(addr [20]byte) (*big.Int, error) {
	if g == nil || g.state == nil || g.balances == nil {
		return nil, ErrNilState
	}
	cfg, err := g.state.GateConfig()
	if err != nil {
		return nil, err
	}
	balance, err := g.balances.BalanceOf(cfg.Asset, addr)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	return balance, nil
}

// HasSufficientBalance reports whether the address holds at least the
// configured threshold of the configured asset.
func (g *Eligibility) HasSufficientBalance(addr [20]byte) (bool, error) {
	if g == nil || g.state == nil || g.balances == nil {
		return false, ErrNilState
	}
	cfg, err := g.state.GateConfig()
	if err != nil {
		return false, err
	}
	balance, err := g.balances.BalanceOf(cfg.Asset, addr)
	if err != nil {
		return false, err
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	threshold := cfg.Threshold
	if threshold == nil {
		threshold = big.NewInt(0)
	}
	return balance.Cmp(threshold) >= 0, nil
}

// UpdateAsset switches the balance-bearing asset consulted by the gate.
// Owner-only; takes effect immediately for all subsequent checks, with no
// grandfathering for addresses that failed under the old configuration.
func (g *Eligibility) UpdateAsset(caller, asset [20]byte) error {
	if g == nil || g.state == nil || g.registry == nil {
		return ErrNilState
	}
	isOwner, err := g.registry.IsOwner(caller)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrUnauthorized
	}
	cfg, err := g.state.GateConfig()
	if err != nil {
		return err
	}
	old := cfg.Asset
	cfg.Asset = asset
	if err := g.state.GateSetConfig(cfg); err != nil {
		return err
	}
	g.emit(NewConfigUpdatedEvent("asset", addrString(old), addrString(asset)))
	g.telemetry.ObserveConfigUpdate("asset")
	return nil
}

// UpdateThreshold replaces the required-balance threshold. Owner-only.
func (g *Eligibility) UpdateThreshold(caller [20]byte, threshold *big.Int) error {
	if g == nil || g.state == nil || g.registry == nil {
		return ErrNilState
	}
	isOwner, err := g.registry.IsOwner(caller)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrUnauthorized
	}
	if threshold == nil || threshold.Sign() < 0 {
		return fmt.Errorf("gate: threshold must be non-negative")
	}
	cfg, err := g.state.GateConfig()
	if err != nil {
		return err
	}
	old := cfg.Threshold.String()
	cfg.Threshold = new(big.Int).Set(threshold)
	if err := g.state.GateSetConfig(cfg); err != nil {
		return err
	}
	g.emit(NewConfigUpdatedEvent("threshold", old, threshold.String()))
	g.telemetry.ObserveConfigUpdate("threshold")
	return nil
}

func (g *Eligibility) emit(evt *types.Event) {
	if g == nil || evt == nil || g.emitter == nil {
		return
	}
	g.emitter.Emit(evt)
}
