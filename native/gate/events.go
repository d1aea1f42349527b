package gate

import (
	"strconv"

	"mintgate/core/types"
	"mintgate/crypto"
)

const (
	EventTypeAdminAdded    = "gate.admin.added"
	EventTypeAdminRemoved  = "gate.admin.removed"
	EventTypeTokenMinted   = "gate.token.minted"
	EventTypeURIUpdated    = "gate.token.uri_updated"
	EventTypeConfigUpdated = "gate.config.updated"
)

func addrString(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.MGTPrefix, addr[:]).String()
}

// NewAdminAddedEvent returns the canonical payload emitted when the owner
// grants admin privileges.
func NewAdminAddedEvent(admin [20]byte, count uint64) *types.Event {
	return &types.Event{
		Type: EventTypeAdminAdded,
		Attributes: map[string]string{
			"admin":      addrString(admin),
			"adminCount": strconv.FormatUint(count, 10),
		},
	}
}

// NewAdminRemovedEvent returns the canonical payload emitted when the owner
// revokes admin privileges.
func NewAdminRemovedEvent(admin [20]byte, count uint64) *types.Event {
	return &types.Event{
		Type: EventTypeAdminRemoved,
		Attributes: map[string]string{
			"admin":      addrString(admin),
			"adminCount": strconv.FormatUint(count, 10),
		},
	}
}

// NewTokenMintedEvent returns the canonical payload for a completed issuance.
func NewTokenMintedEvent(to [20]byte, tokenID uint64, quantity uint64) *types.Event {
	return &types.Event{
		Type: EventTypeTokenMinted,
		Attributes: map[string]string{
			"to":       addrString(to),
			"tokenId":  strconv.FormatUint(tokenID, 10),
			"quantity": strconv.FormatUint(quantity, 10),
		},
	}
}

// NewURIUpdatedEvent returns the canonical payload emitted when a token URI
// prefix changes.
func NewURIUpdatedEvent(tokenID uint64, prefix string) *types.Event {
	return &types.Event{
		Type: EventTypeURIUpdated,
		Attributes: map[string]string{
			"tokenId": strconv.FormatUint(tokenID, 10),
			"uri":     prefix,
		},
	}
}

// NewConfigUpdatedEvent returns the canonical payload for an issuance
// parameter change, carrying both the previous and the new value.
func NewConfigUpdatedEvent(field, oldValue, newValue string) *types.Event {
	return &types.Event{
		Type: EventTypeConfigUpdated,
		Attributes: map[string]string{
			"field": field,
			"old":   oldValue,
			"new":   newValue,
		},
	}
}
