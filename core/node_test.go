package core

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"mintgate/core/state"
	"mintgate/native/gate"
	"mintgate/storage"
)

func testAddr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestNode(t *testing.T) *Node {
	t.Helper()
	return NewNode(state.NewManager(storage.NewMemDB()), 64)
}

func testGenesis() *Genesis {
	return &Genesis{
		Owner:           testAddr(0x01),
		Admins:          [][20]byte{testAddr(0x02)},
		Asset:           testAddr(0xAA),
		Threshold:       big.NewInt(1010),
		MintableTokenID: 12,
		MintQuantity:    1,
		TokenURIs:       map[uint64]string{12: "https://meta.example/"},
		Allocations: []GenesisAllocation{
			{Addr: testAddr(0x10), Amount: big.NewInt(1010)},
			{Addr: testAddr(0x11), Amount: big.NewInt(1009)},
		},
	}
}

func TestApplyGenesisSeedsState(t *testing.T) {
	node := newTestNode(t)
	if err := node.ApplyGenesis(testGenesis()); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	owner, err := node.Owner()
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != testAddr(0x01) {
		t.Fatalf("unexpected owner %x", owner)
	}
	ok, err := node.IsAuthorized(testAddr(0x02))
	if err != nil || !ok {
		t.Fatalf("expected seeded admin to be authorized (ok=%v err=%v)", ok, err)
	}
	cfg, err := node.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Threshold.Int64() != 1010 || cfg.TokenID != 12 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	balance, err := node.Balance(testAddr(0x10))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Int64() != 1010 {
		t.Fatalf("expected allocation 1010, got %s", balance)
	}
}

func TestApplyGenesisIdempotent(t *testing.T) {
	node := newTestNode(t)
	if err := node.ApplyGenesis(testGenesis()); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	second := testGenesis()
	second.Owner = testAddr(0x99)
	if err := node.ApplyGenesis(second); err != nil {
		t.Fatalf("second genesis: %v", err)
	}
	owner, err := node.Owner()
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != testAddr(0x01) {
		t.Fatalf("second genesis overwrote owner: %x", owner)
	}
}

func TestSelfMintThroughNode(t *testing.T) {
	node := newTestNode(t)
	if err := node.ApplyGenesis(testGenesis()); err != nil {
		t.Fatalf("genesis: %v", err)
	}

	receipt, err := node.SelfMint(testAddr(0x10))
	if err != nil {
		t.Fatalf("self mint: %v", err)
	}
	if receipt.TokenID != 12 || receipt.Quantity != 1 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if _, err := node.SelfMint(testAddr(0x10)); !errors.Is(err, gate.ErrAlreadyMinted) {
		t.Fatalf("expected ErrAlreadyMinted, got %v", err)
	}
	if _, err := node.SelfMint(testAddr(0x11)); !errors.Is(err, gate.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	uri, err := node.TokenURI(12)
	if err != nil {
		t.Fatalf("uri: %v", err)
	}
	if uri != "https://meta.example/12.json" {
		t.Fatalf("unexpected uri %q", uri)
	}
	units, err := node.BalanceOfToken(testAddr(0x10), 12)
	if err != nil || units != 1 {
		t.Fatalf("expected 1 credential unit (units=%d err=%v)", units, err)
	}
}

func TestFundBalanceOwnerOnly(t *testing.T) {
	node := newTestNode(t)
	if err := node.ApplyGenesis(testGenesis()); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if err := node.FundBalance(testAddr(0x02), testAddr(0x11), big.NewInt(1)); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("expected admin faucet use rejected, got %v", err)
	}
	if err := node.FundBalance(testAddr(0x01), testAddr(0x11), big.NewInt(1)); err != nil {
		t.Fatalf("owner faucet: %v", err)
	}
	ok, err := node.CanSelfMint(testAddr(0x11))
	if err != nil || !ok {
		t.Fatalf("expected topped-up account eligible (ok=%v err=%v)", ok, err)
	}
}

func TestNodeEventsObservable(t *testing.T) {
	node := newTestNode(t)
	if err := node.ApplyGenesis(testGenesis()); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if _, err := node.SelfMint(testAddr(0x10)); err != nil {
		t.Fatalf("self mint: %v", err)
	}
	_, cancel, backlog := node.EventsSubscribe(0)
	defer cancel()
	found := false
	for _, stored := range backlog {
		if stored.Event.Type == gate.EventTypeTokenMinted {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a mint event in the backlog")
	}
}

func TestNodeSerializesConcurrentMints(t *testing.T) {
	node := newTestNode(t)
	genesis := testGenesis()
	genesis.Allocations = nil
	for i := 0; i < 16; i++ {
		genesis.Allocations = append(genesis.Allocations, GenesisAllocation{
			Addr:   testAddr(byte(0x20 + i)),
			Amount: big.NewInt(2000),
		})
	}
	if err := node.ApplyGenesis(genesis); err != nil {
		t.Fatalf("genesis: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(last byte) {
			defer wg.Done()
			// every account mints twice; exactly one attempt may win
			node.SelfMint(testAddr(last))
			node.SelfMint(testAddr(last))
		}(byte(0x20 + i))
	}
	wg.Wait()

	total, err := node.TotalIssued()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Int64() != 16 {
		t.Fatalf("expected 16 issued units, got %s", total)
	}
}
