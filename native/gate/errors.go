package gate

import "errors"

var (
	ErrNilState            = errors.New("gate: state not configured")
	ErrUnauthorized        = errors.New("gate: unauthorized")
	ErrInvalidAddress      = errors.New("gate: invalid address")
	ErrAlreadyAdmin        = errors.New("gate: already an admin")
	ErrNotAdmin            = errors.New("gate: not an admin")
	ErrOwnerAlreadyAdmin   = errors.New("gate: owner cannot be an admin")
	ErrAlreadyMinted       = errors.New("gate: address already minted")
	ErrInsufficientBalance = errors.New("gate: insufficient balance")
	ErrInvalidQuantity     = errors.New("gate: quantity must be positive")
	ErrUnknownToken        = errors.New("gate: unknown token")
)
