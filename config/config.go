package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"mintgate/core"
	"mintgate/crypto"
)

// Genesis is the TOML rendering of the initial gate state. Addresses are
// bech32 strings; the threshold is a decimal string so it survives values
// past int64.
type Genesis struct {
	Owner           string            `toml:"Owner"`
	Admins          []string          `toml:"Admins"`
	Asset           string            `toml:"Asset"`
	Threshold       string            `toml:"Threshold"`
	MintableTokenID uint64            `toml:"MintableTokenID"`
	MintQuantity    uint64            `toml:"MintQuantity"`
	TokenURIs       map[string]string `toml:"TokenURIs"`
	Allocations     map[string]string `toml:"Allocations"`
}

type Config struct {
	RPCAddress   string  `toml:"RPCAddress"`
	DataDir      string  `toml:"DataDir"`
	NetworkName  string  `toml:"NetworkName"`
	EventBacklog int     `toml:"EventBacklog"`
	Genesis      Genesis `toml:"genesis"`
}

// Load loads the configuration from the given path. A missing file is
// replaced with a generated default so a fresh checkout boots without
// manual setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "mintgate-local"
	}
	if cfg.EventBacklog <= 0 {
		cfg.EventBacklog = 1024
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./mintgate-data"
	}

	return cfg, nil
}

// createDefault creates and saves a default configuration file. The
// generated genesis carries a freshly generated owner key rendered as a
// bech32 address; operators are expected to replace it before real use.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:   ":8080",
		DataDir:      "./mintgate-data",
		NetworkName:  "mintgate-local",
		EventBacklog: 1024,
		Genesis: Genesis{
			Owner:        key.PubKey().Address().String(),
			Admins:       []string{},
			Threshold:    "0",
			MintQuantity: 1,
		},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func decodeAddr(field, value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, nil
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, fmt.Errorf("config: %s: %w", field, err)
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

// CoreGenesis converts the TOML genesis block into the form the node
// applies. Empty address fields decode to the zero address.
func (g *Genesis) CoreGenesis() (*core.Genesis, error) {
	owner, err := decodeAddr("Owner", g.Owner)
	if err != nil {
		return nil, err
	}
	asset, err := decodeAddr("Asset", g.Asset)
	if err != nil {
		return nil, err
	}

	out := &core.Genesis{
		Owner:           owner,
		Asset:           asset,
		MintableTokenID: g.MintableTokenID,
		MintQuantity:    g.MintQuantity,
	}

	for _, admin := range g.Admins {
		addr, err := decodeAddr("Admins", admin)
		if err != nil {
			return nil, err
		}
		out.Admins = append(out.Admins, addr)
	}

	threshold := strings.TrimSpace(g.Threshold)
	if threshold != "" {
		value, ok := new(big.Int).SetString(threshold, 10)
		if !ok || value.Sign() < 0 {
			return nil, fmt.Errorf("config: Threshold: invalid decimal %q", g.Threshold)
		}
		out.Threshold = value
	}

	if len(g.TokenURIs) > 0 {
		out.TokenURIs = make(map[uint64]string, len(g.TokenURIs))
		for id, prefix := range g.TokenURIs {
			var tokenID uint64
			if _, err := fmt.Sscanf(id, "%d", &tokenID); err != nil {
				return nil, fmt.Errorf("config: TokenURIs: invalid token id %q", id)
			}
			out.TokenURIs[tokenID] = prefix
		}
	}

	for account, amount := range g.Allocations {
		addr, err := decodeAddr("Allocations", account)
		if err != nil {
			return nil, err
		}
		value, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
		if !ok || value.Sign() <= 0 {
			return nil, fmt.Errorf("config: Allocations: invalid amount %q for %s", amount, account)
		}
		out.Allocations = append(out.Allocations, core.GenesisAllocation{Addr: addr, Amount: value})
	}

	return out, nil
}
