package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/eakarabulut/warriors-dapp/internal/warrior"
)

// MemLedger is an in-process ledger with the same observable behavior as
// the contract: dense zero-based id assignment, server-side readiness
// enforcement, and reverts surfaced only when a pending tx is awaited.
// It backs the test suite and the dev mode.
type MemLedger struct {
	mu       sync.Mutex
	sender   string
	cooldown time.Duration
	now      func() time.Time

	warriors []*warrior.Warrior
	owners   []string

	calls []string

	failWarrior   map[uint64]error
	failTokenURI  map[uint64]error
	errMyWarriors error
}

func NewMemLedger(sender string) *MemLedger {
	return &MemLedger{
		sender:       sender,
		cooldown:     24 * time.Hour,
		now:          time.Now,
		failWarrior:  map[uint64]error{},
		failTokenURI: map[uint64]error{},
	}
}

// Seed installs a warrior directly, bypassing the tx path. Returns the
// assigned id.
func (m *MemLedger) Seed(w warrior.Warrior, owner string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = uint64(len(m.warriors))
	m.warriors = append(m.warriors, &w)
	m.owners = append(m.owners, owner)
	return w.ID
}

func (m *MemLedger) SetClock(now func() time.Time) { m.now = now }

func (m *MemLedger) SetCooldown(d time.Duration) { m.cooldown = d }

func (m *MemLedger) FailWarriorFetch(id uint64, err error) { m.failWarrior[id] = err }

func (m *MemLedger) FailTokenURIFetch(id uint64, err error) { m.failTokenURI[id] = err }

func (m *MemLedger) FailMyWarriors(err error) { m.errMyWarriors = err }

// Calls returns the remote operations issued so far, in order. Tests use
// it to assert that locally rejected commands never reach the ledger.
func (m *MemLedger) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MemLedger) CallCount(op string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

func (m *MemLedger) record(op string) {
	m.calls = append(m.calls, op)
}

func (m *MemLedger) MyWarriors(ctx context.Context, owner string) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("getMyWarriors")
	if m.errMyWarriors != nil {
		return nil, m.errMyWarriors
	}
	var ids []uint64
	for id, o := range m.owners {
		if warrior.SameOwner(o, owner) {
			ids = append(ids, uint64(id))
		}
	}
	return ids, nil
}

func (m *MemLedger) Warrior(ctx context.Context, id uint64) (warrior.Warrior, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("warriors")
	if err := m.failWarrior[id]; err != nil {
		return warrior.Warrior{}, err
	}
	if id >= uint64(len(m.warriors)) {
		return warrior.Warrior{}, fmt.Errorf("warriors(%d): %w", id, ErrUnassignedID)
	}
	return *m.warriors[id], nil
}

func (m *MemLedger) OwnerOf(ctx context.Context, id uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ownerOf")
	if id >= uint64(len(m.owners)) {
		return "", fmt.Errorf("ownerOf(%d): %w", id, ErrUnassignedID)
	}
	return m.owners[id], nil
}

func (m *MemLedger) TokenURI(ctx context.Context, id uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("tokenURI")
	if err := m.failTokenURI[id]; err != nil {
		return "", err
	}
	if id >= uint64(len(m.warriors)) {
		return "", fmt.Errorf("tokenURI(%d): %w", id, ErrUnassignedID)
	}
	return m.warriors[id].TokenURI, nil
}

func (m *MemLedger) CreateWarrior(ctx context.Context, name string, class warrior.Class, power, defense uint64, tokenURI string) (PendingTx, error) {
	m.mu.Lock()
	m.record("createWarrior")
	hash := fmt.Sprintf("0xmem%d", len(m.calls))
	m.mu.Unlock()
	return &memPendingTx{hash: hash, apply: func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.warriors = append(m.warriors, &warrior.Warrior{
			ID:       uint64(len(m.warriors)),
			Name:     name,
			Class:    class,
			Power:    power,
			Defense:  defense,
			TokenURI: tokenURI,
		})
		m.owners = append(m.owners, m.sender)
		return nil
	}}, nil
}

func (m *MemLedger) LevelUpWithFee(ctx context.Context, id uint64, fee *big.Int) (PendingTx, error) {
	m.mu.Lock()
	m.record("levelUpWithFee")
	hash := fmt.Sprintf("0xmem%d", len(m.calls))
	m.mu.Unlock()
	return &memPendingTx{hash: hash, apply: func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if id >= uint64(len(m.warriors)) {
			return fmt.Errorf("levelUpWithFee(%d): %w", id, ErrReverted)
		}
		if !warrior.SameOwner(m.owners[id], m.sender) {
			return fmt.Errorf("levelUpWithFee(%d): not owner: %w", id, ErrReverted)
		}
		if fee == nil || fee.Cmp(LevelUpFee) != 0 {
			return fmt.Errorf("levelUpWithFee(%d): wrong fee: %w", id, ErrReverted)
		}
		m.warriors[id].Level++
		return nil
	}}, nil
}

func (m *MemLedger) Battle(ctx context.Context, allyID, enemyID uint64) (PendingTx, error) {
	m.mu.Lock()
	m.record("battle")
	hash := fmt.Sprintf("0xmem%d", len(m.calls))
	m.mu.Unlock()
	return &memPendingTx{hash: hash, apply: func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if allyID >= uint64(len(m.warriors)) || enemyID >= uint64(len(m.warriors)) {
			return fmt.Errorf("battle: unknown warrior: %w", ErrReverted)
		}
		ally, enemy := m.warriors[allyID], m.warriors[enemyID]
		if !warrior.SameOwner(m.owners[allyID], m.sender) {
			return fmt.Errorf("battle: ally not owned by sender: %w", ErrReverted)
		}
		now := m.now()
		// Authoritative readiness check. The client's local gate is only an
		// optimistic pre-filter.
		if !warrior.IsReady(ally.ReadyAt, now) {
			return fmt.Errorf("battle: ally on cooldown: %w", ErrReverted)
		}
		if ally.Power > enemy.Defense {
			ally.WinCount++
			enemy.LossCount++
		} else {
			ally.LossCount++
			enemy.WinCount++
		}
		ally.ReadyAt = now.Add(m.cooldown).Unix()
		return nil
	}}, nil
}

type memPendingTx struct {
	hash  string
	apply func() error
}

func (p *memPendingTx) Hash() string { return p.hash }

func (p *memPendingTx) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.apply()
}

// MemWallet is the wallet-layer fake. Tests drive change signals through
// EmitAccountChange / EmitNetworkChange.
type MemWallet struct {
	account string
	chainID uint64
	code    []byte
	changes chan Change
}

func NewMemWallet(account string, chainID uint64) *MemWallet {
	return &MemWallet{
		account: account,
		chainID: chainID,
		code:    []byte{0x60, 0x80}, // non-empty by default
		changes: make(chan Change, 4),
	}
}

func (w *MemWallet) SetCode(code []byte) { w.code = code }

func (w *MemWallet) Account(ctx context.Context) (string, error) { return w.account, nil }
func (w *MemWallet) ChainID(ctx context.Context) (uint64, error) { return w.chainID, nil }

func (w *MemWallet) CodeAt(ctx context.Context, contractAddr string) ([]byte, error) {
	return w.code, nil
}

func (w *MemWallet) Changes() <-chan Change { return w.changes }

func (w *MemWallet) EmitAccountChange(account string) {
	w.account = account
	w.changes <- Change{Kind: ChangeAccount}
}

func (w *MemWallet) EmitNetworkChange(chainID uint64) {
	w.chainID = chainID
	w.changes <- Change{Kind: ChangeNetwork}
}
