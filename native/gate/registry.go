package gate

import (
	"mintgate/core/events"
	"mintgate/core/types"
	"mintgate/observability"
)

type registryState interface {
	GateOwner() ([20]byte, bool, error)
	GateSetOwner(addr [20]byte) error
	GateIsAdmin(addr [20]byte) (bool, error)
	GateAdminAdd(addr [20]byte) error
	GateAdminRemove(addr [20]byte) error
	GateAdminCount() (uint64, error)
	GateAdmins() ([][20]byte, error)
}

// Registry answers privilege questions: exactly one owner plus a set of
// admins. The owner is never a member of the admin set and the zero address
// is never accepted anywhere.
type Registry struct {
	state     registryState
	emitter   events.Emitter
	telemetry *observability.GateMetrics
}

// NewRegistry constructs an authorization registry over the supplied state.
func NewRegistry(state registryState) *Registry {
	return &Registry{
		state:     state,
		emitter:   events.NoopEmitter{},
		telemetry: observability.Gate(),
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// Owner returns the current owner identity.
func (r *Registry) Owner() ([20]byte, error) {
	if r == nil || r.state == nil {
		return [20]byte{}, ErrNilState
	}
	owner, _, err := r.state.GateOwner()
	return owner, err
}

// IsOwner reports whether the caller is the owner. This stricter check gates
// batch issuance: admins deliberately do not qualify.
func (r *Registry) IsOwner(caller [20]byte) (bool, error) {
	if r == nil || r.state == nil {
		return false, ErrNilState
	}
	owner, ok, err := r.state.GateOwner()
	if err != nil {
		return false, err
	}
	return ok && owner == caller, nil
}

// IsAuthorized reports whether the caller may perform privileged actions:
// true iff the caller is the owner or a member of the admin set.
func (r *Registry) IsAuthorized(caller [20]byte) (bool, error) {
	if r == nil || r.state == nil {
		return false, ErrNilState
	}
	owner, ok, err := r.state.GateOwner()
	if err != nil {
		return false, err
	}
	if ok && owner == caller {
		return true, nil
	}
	return r.state.GateIsAdmin(caller)
}

// AdminCount returns the number of admins currently registered.
func (r *Registry) AdminCount() (uint64, error) {
	if r == nil || r.state == nil {
		return 0, ErrNilState
	}
	return r.state.GateAdminCount()
}

// Admins returns the admin set in deterministic order.
func (r *Registry) Admins() ([][20]byte, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	return r.state.GateAdmins()
}

// AddAdmin grants admin privileges. Only the owner may call it; the zero
// address, an existing admin, and the owner itself are rejected. All checks
// run before any write so a failure leaves state untouched.
func (r *Registry) AddAdmin(caller, admin [20]byte) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	owner, ok, err := r.state.GateOwner()
	if err != nil {
		return err
	}
	if !ok || owner != caller {
		return ErrUnauthorized
	}
	if isZeroAddress(admin) {
		return ErrInvalidAddress
	}
	if admin == owner {
		return ErrOwnerAlreadyAdmin
	}
	isAdmin, err := r.state.GateIsAdmin(admin)
	if err != nil {
		return err
	}
	if isAdmin {
		return ErrAlreadyAdmin
	}
	if err := r.state.GateAdminAdd(admin); err != nil {
		return err
	}
	count, err := r.state.GateAdminCount()
	if err != nil {
		return err
	}
	r.emit(NewAdminAddedEvent(admin, count))
	r.telemetry.ObserveAdminChange("added")
	return nil
}

// RemoveAdmin revokes admin privileges. Only the owner may call it; removing
// a non-member fails with ErrNotAdmin.
func (r *Registry) RemoveAdmin(caller, admin [20]byte) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	owner, ok, err := r.state.GateOwner()
	if err != nil {
		return err
	}
	if !ok || owner != caller {
		return ErrUnauthorized
	}
	isAdmin, err := r.state.GateIsAdmin(admin)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAdmin
	}
	if err := r.state.GateAdminRemove(admin); err != nil {
		return err
	}
	count, err := r.state.GateAdminCount()
	if err != nil {
		return err
	}
	r.emit(NewAdminRemovedEvent(admin, count))
	r.telemetry.ObserveAdminChange("removed")
	return nil
}

// TransferOwnership atomically replaces the owner. The admin set is left
// untouched on purpose: the former owner is not added as admin, and a new
// owner already present in the admin set stays there.
func (r *Registry) TransferOwnership(caller, newOwner [20]byte) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	owner, ok, err := r.state.GateOwner()
	if err != nil {
		return err
	}
	if !ok || owner != caller {
		return ErrUnauthorized
	}
	if isZeroAddress(newOwner) {
		return ErrInvalidAddress
	}
	return r.state.GateSetOwner(newOwner)
}

func (r *Registry) emit(evt *types.Event) {
	if r == nil || evt == nil || r.emitter == nil {
		return
	}
	r.emitter.Emit(evt)
}
