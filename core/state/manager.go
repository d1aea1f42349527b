package state

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"sort"
	"strconv"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"mintgate/native/gate"
	"mintgate/storage"
)

// Manager provides typed access to the gate's persisted tables over a raw
// key-value database. Keys are hashed with keccak under stable string
// prefixes so table layout never collides.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	ownerPrefix       = []byte("gate:owner")
	adminsPrefix      = []byte("gate:admins")
	mintedPrefix      = []byte("gate:minted:")
	totalIssuedPrefix = []byte("gate:total-issued")
	configPrefix      = []byte("gate:config")
	tokenPrefix       = []byte("gate:token:")
	tokenURIPrefix    = []byte("gate:token-uri:")
	balancePrefix     = []byte("token:balance:")
	credentialPrefix  = []byte("token:credential:")
)

var presentValue = []byte{0x01}

func hashKey(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, part := range parts {
		buf.Write(part)
	}
	return ethcrypto.Keccak256(buf.Bytes())
}

func tokenIDBytes(tokenID uint64) []byte {
	return []byte(strconv.FormatUint(tokenID, 10))
}

// get returns the raw value and whether the key exists, folding the
// missing-key error into the boolean.
func (m *Manager) get(key []byte) ([]byte, bool, error) {
	value, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// --- AuthorizationRegistry tables ---

// GateOwner returns the owner identity and whether one has been set.
func (m *Manager) GateOwner() ([20]byte, bool, error) {
	value, ok, err := m.get(hashKey(ownerPrefix))
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	var owner [20]byte
	if len(value) != len(owner) {
		return [20]byte{}, false, errors.New("state: malformed owner record")
	}
	copy(owner[:], value)
	return owner, true, nil
}

// GateSetOwner replaces the owner identity.
func (m *Manager) GateSetOwner(addr [20]byte) error {
	return m.db.Put(hashKey(ownerPrefix), addr[:])
}

func (m *Manager) loadAdmins() ([][]byte, error) {
	value, ok, err := m.get(hashKey(adminsPrefix))
	if err != nil || !ok {
		return nil, err
	}
	var members [][]byte
	if err := rlp.DecodeBytes(value, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (m *Manager) writeAdmins(members [][]byte) error {
	encoded, err := rlp.EncodeToBytes(members)
	if err != nil {
		return err
	}
	return m.db.Put(hashKey(adminsPrefix), encoded)
}

// GateIsAdmin reports membership in the admin set.
func (m *Manager) GateIsAdmin(addr [20]byte) (bool, error) {
	members, err := m.loadAdmins()
	if err != nil {
		return false, err
	}
	for _, member := range members {
		if bytes.Equal(member, addr[:]) {
			return true, nil
		}
	}
	return false, nil
}

// GateAdminAdd inserts the address into the admin set. The stored list stays
// sorted for determinism; duplicate inserts are ignored here because the
// registry enforces idempotence ahead of the write.
func (m *Manager) GateAdminAdd(addr [20]byte) error {
	members, err := m.loadAdmins()
	if err != nil {
		return err
	}
	for _, member := range members {
		if bytes.Equal(member, addr[:]) {
			return nil
		}
	}
	members = append(members, append([]byte(nil), addr[:]...))
	sort.Slice(members, func(i, j int) bool {
		return hex.EncodeToString(members[i]) < hex.EncodeToString(members[j])
	})
	return m.writeAdmins(members)
}

// GateAdminRemove removes the address from the admin set.
func (m *Manager) GateAdminRemove(addr [20]byte) error {
	members, err := m.loadAdmins()
	if err != nil {
		return err
	}
	filtered := members[:0]
	for _, member := range members {
		if !bytes.Equal(member, addr[:]) {
			filtered = append(filtered, member)
		}
	}
	return m.writeAdmins(filtered)
}

// GateAdminCount returns the size of the admin set.
func (m *Manager) GateAdminCount() (uint64, error) {
	members, err := m.loadAdmins()
	if err != nil {
		return 0, err
	}
	return uint64(len(members)), nil
}

// GateAdmins returns the admin set in deterministic order.
func (m *Manager) GateAdmins() ([][20]byte, error) {
	members, err := m.loadAdmins()
	if err != nil {
		return nil, err
	}
	out := make([][20]byte, 0, len(members))
	for _, member := range members {
		if len(member) != 20 {
			continue
		}
		var addr [20]byte
		copy(addr[:], member)
		out = append(out, addr)
	}
	return out, nil
}

// --- IssuanceLedger tables ---

// GateMinted reports whether the address already received its issuance.
func (m *Manager) GateMinted(addr [20]byte) (bool, error) {
	_, ok, err := m.get(hashKey(mintedPrefix, addr[:]))
	return ok, err
}

// GateSetMinted flags the address as having minted. Write-once from the
// engine's perspective; there is no public reset.
func (m *Manager) GateSetMinted(addr [20]byte) error {
	return m.db.Put(hashKey(mintedPrefix, addr[:]), presentValue)
}

// GateClearMinted unwinds the minted flag. Only the engine's rollback path
// for a failed delegated issuance uses this.
func (m *Manager) GateClearMinted(addr [20]byte) error {
	return m.db.Delete(hashKey(mintedPrefix, addr[:]))
}

// GateTotalIssued returns the aggregate quantity ever issued.
func (m *Manager) GateTotalIssued() (*big.Int, error) {
	value, ok, err := m.get(hashKey(totalIssuedPrefix))
	if err != nil || !ok {
		return big.NewInt(0), err
	}
	total := new(big.Int)
	if err := rlp.DecodeBytes(value, total); err != nil {
		return nil, err
	}
	return total, nil
}

// GateSetTotalIssued persists the aggregate counter.
func (m *Manager) GateSetTotalIssued(total *big.Int) error {
	if total == nil {
		total = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(total)
	if err != nil {
		return err
	}
	return m.db.Put(hashKey(totalIssuedPrefix), encoded)
}

// GateConfig loads the issuance parameters, falling back to defaults when
// the owner has not configured anything yet.
func (m *Manager) GateConfig() (*gate.Config, error) {
	value, ok, err := m.get(hashKey(configPrefix))
	if err != nil {
		return nil, err
	}
	if !ok {
		return gate.DefaultConfig(), nil
	}
	cfg := new(gate.Config)
	if err := rlp.DecodeBytes(value, cfg); err != nil {
		return nil, err
	}
	return cfg.Normalize(), nil
}

// GateSetConfig persists the issuance parameters.
func (m *Manager) GateSetConfig(cfg *gate.Config) error {
	if cfg == nil {
		return errors.New("state: nil config")
	}
	encoded, err := rlp.EncodeToBytes(cfg.Clone().Normalize())
	if err != nil {
		return err
	}
	return m.db.Put(hashKey(configPrefix), encoded)
}

// --- TokenRegistry tables ---

// TokenExists reports whether the token identifier was ever issued.
func (m *Manager) TokenExists(tokenID uint64) (bool, error) {
	_, ok, err := m.get(hashKey(tokenPrefix, tokenIDBytes(tokenID)))
	return ok, err
}

// TokenMarkExists records the token identifier as issued.
func (m *Manager) TokenMarkExists(tokenID uint64) error {
	return m.db.Put(hashKey(tokenPrefix, tokenIDBytes(tokenID)), presentValue)
}

// TokenURIPrefix returns the stored URI prefix, empty when unset.
func (m *Manager) TokenURIPrefix(tokenID uint64) (string, error) {
	value, ok, err := m.get(hashKey(tokenURIPrefix, tokenIDBytes(tokenID)))
	if err != nil || !ok {
		return "", err
	}
	return string(value), nil
}

// TokenSetURIPrefix stores the URI prefix for a token identifier,
// independent of the token's existence.
func (m *Manager) TokenSetURIPrefix(tokenID uint64, prefix string) error {
	return m.db.Put(hashKey(tokenURIPrefix, tokenIDBytes(tokenID)), []byte(prefix))
}

// --- Ledger tables (balance oracle + issuance primitive backing) ---

// AssetBalance returns the fungible balance of addr for asset.
func (m *Manager) AssetBalance(asset [20]byte, addr [20]byte) (*big.Int, error) {
	value, ok, err := m.get(hashKey(balancePrefix, asset[:], []byte(":"), addr[:]))
	if err != nil || !ok {
		return big.NewInt(0), err
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(value, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// SetAssetBalance stores the fungible balance of addr for asset.
func (m *Manager) SetAssetBalance(asset [20]byte, addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("state: balance must be non-negative")
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.db.Put(hashKey(balancePrefix, asset[:], []byte(":"), addr[:]), encoded)
}

// CredentialBalance returns the issued credential units held by addr for the
// token identifier.
func (m *Manager) CredentialBalance(addr [20]byte, tokenID uint64) (uint64, error) {
	value, ok, err := m.get(hashKey(credentialPrefix, tokenIDBytes(tokenID), []byte(":"), addr[:]))
	if err != nil || !ok {
		return 0, err
	}
	var amount uint64
	if err := rlp.DecodeBytes(value, &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// SetCredentialBalance stores the credential units held by addr.
func (m *Manager) SetCredentialBalance(addr [20]byte, tokenID uint64, amount uint64) error {
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.db.Put(hashKey(credentialPrefix, tokenIDBytes(tokenID), []byte(":"), addr[:]), encoded)
}
