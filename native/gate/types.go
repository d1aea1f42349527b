package gate

import "math/big"

// Config captures the mutable issuance parameters. All four fields are
// owner-mutable independently and apply to future mints only.
type Config struct {
	Asset     [20]byte
	Threshold *big.Int
	TokenID   uint64
	Quantity  uint64
}

// DefaultConfig returns the parameters in force before the owner configures
// anything: zero threshold, token zero, one unit per address.
func DefaultConfig() *Config {
	return &Config{Threshold: big.NewInt(0), Quantity: 1}
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Threshold != nil {
		clone.Threshold = new(big.Int).Set(c.Threshold)
	}
	return &clone
}

// Normalize fills nil numeric fields with their zero values.
func (c *Config) Normalize() *Config {
	if c == nil {
		return DefaultConfig()
	}
	if c.Threshold == nil {
		c.Threshold = big.NewInt(0)
	}
	if c.Quantity == 0 {
		c.Quantity = 1
	}
	return c
}

// MintReceipt describes a single completed issuance.
type MintReceipt struct {
	To       [20]byte
	TokenID  uint64
	Quantity uint64
}

// BatchResult reports the outcome of an administrative batch issuance. The
// batch is best-effort: entries already minted are skipped without error, and
// a failure on one entry does not roll back prior entries.
type BatchResult struct {
	BatchID string
	Issued  [][20]byte
	Skipped [][20]byte
}
