package gate

import (
	"strconv"

	"mintgate/core/events"
	"mintgate/core/types"
	"mintgate/observability"
)

type tokenState interface {
	TokenExists(tokenID uint64) (bool, error)
	TokenMarkExists(tokenID uint64) error
	TokenURIPrefix(tokenID uint64) (string, error)
	TokenSetURIPrefix(tokenID uint64, prefix string) error
}

// Tokens tracks which token identifiers have ever been issued and the URI
// prefix attached to each. Prefixes may be staged before the token exists.
type Tokens struct {
	state     tokenState
	registry  *Registry
	emitter   events.Emitter
	telemetry *observability.GateMetrics
}

// NewTokens constructs the token registry.
func NewTokens(state tokenState, registry *Registry) *Tokens {
	return &Tokens{
		state:     state,
		registry:  registry,
		emitter:   events.NoopEmitter{},
		telemetry: observability.Gate(),
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (t *Tokens) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		t.emitter = events.NoopEmitter{}
		return
	}
	t.emitter = emitter
}

// Exists reports whether the token identifier has ever been issued.
func (t *Tokens) Exists(tokenID uint64) (bool, error) {
	if t == nil || t.state == nil {
		return false, ErrNilState
	}
	return t.state.TokenExists(tokenID)
}

// MarkExists records the token identifier as issued. Idempotent; called
// internally on first issuance of an identifier.
func (t *Tokens) MarkExists(tokenID uint64) error {
	if t == nil || t.state == nil {
		return ErrNilState
	}
	exists, err := t.state.TokenExists(tokenID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return t.state.TokenMarkExists(tokenID)
}

// SetURI stores the URI prefix for a token identifier. The caller must be
// authorized (owner or admin). Pre-staging before the token exists is
// allowed.
func (t *Tokens) SetURI(caller [20]byte, tokenID uint64, prefix string) error {
	if t == nil || t.state == nil || t.registry == nil {
		return ErrNilState
	}
	authorized, err := t.registry.IsAuthorized(caller)
	if err != nil {
		return err
	}
	if !authorized {
		return ErrUnauthorized
	}
	if err := t.state.TokenSetURIPrefix(tokenID, prefix); err != nil {
		return err
	}
	t.emit(NewURIUpdatedEvent(tokenID, prefix))
	t.telemetry.ObserveURIUpdate()
	return nil
}

// URI resolves the metadata location for an issued token: the stored prefix
// followed by the decimal identifier and the literal ".json" suffix. Fails
// with ErrUnknownToken for identifiers that were never issued.
func (t *Tokens) URI(tokenID uint64) (string, error) {
	if t == nil || t.state == nil {
		return "", ErrNilState
	}
	exists, err := t.state.TokenExists(tokenID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrUnknownToken
	}
	prefix, err := t.state.TokenURIPrefix(tokenID)
	if err != nil {
		return "", err
	}
	return prefix + strconv.FormatUint(tokenID, 10) + ".json", nil
}

func (t *Tokens) emit(evt *types.Event) {
	if t == nil || evt == nil || t.emitter == nil {
		return
	}
	t.emitter.Emit(evt)
}
