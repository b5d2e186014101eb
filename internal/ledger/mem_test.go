package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eakarabulut/warriors-dapp/internal/warrior"
)

const owner = "0xAAAA0000000000000000000000000000000000aa"
const rival = "0xBBBB0000000000000000000000000000000000bb"

func TestMemLedger_CreateAssignsDenseIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemLedger(owner)

	for i := 0; i < 3; i++ {
		tx, err := m.CreateWarrior(ctx, "W", warrior.ClassFighter, 500, 500, "ipfs://x")
		require.NoError(t, err)
		require.NoError(t, tx.Wait(ctx))
	}

	ids, err := m.MyWarriors(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1, 2}, ids)

	// The first unassigned id fails the read.
	_, err = m.Warrior(ctx, 3)
	require.ErrorIs(t, err, ErrUnassignedID)
}

func TestMemLedger_CreateSetsInitialRecord(t *testing.T) {
	ctx := context.Background()
	m := NewMemLedger(owner)

	tx, err := m.CreateWarrior(ctx, "Maximus", warrior.ClassFighter, 500, 500, "ipfs://x")
	require.NoError(t, err)
	require.NoError(t, tx.Wait(ctx))

	w, err := m.Warrior(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "Maximus", w.Name)
	require.Equal(t, warrior.ClassFighter, w.Class)
	require.EqualValues(t, 0, w.Level)
	require.EqualValues(t, 0, w.WinCount)
	require.EqualValues(t, 0, w.LossCount)

	uri, err := m.TokenURI(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "ipfs://x", uri)

	got, err := m.OwnerOf(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, owner, got)
}

func TestMemLedger_LevelUpRequiresExactFee(t *testing.T) {
	ctx := context.Background()
	m := NewMemLedger(owner)
	id := m.Seed(warrior.Warrior{Name: "A", Class: warrior.ClassMonk, Power: 1, Defense: 1}, owner)

	tx, err := m.LevelUpWithFee(ctx, id, big.NewInt(1))
	require.NoError(t, err)
	err = tx.Wait(ctx)
	require.True(t, IsReverted(err), "wrong fee should revert, got %v", err)

	tx, err = m.LevelUpWithFee(ctx, id, LevelUpFee)
	require.NoError(t, err)
	require.NoError(t, tx.Wait(ctx))

	w, err := m.Warrior(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 1, w.Level)
}

func TestMemLedger_BattleEnforcesCooldownServerSide(t *testing.T) {
	ctx := context.Background()
	m := NewMemLedger(owner)
	now := time.Unix(50_000, 0)
	m.SetClock(func() time.Time { return now })

	ally := m.Seed(warrior.Warrior{Name: "A", Power: 900, Defense: 100, ReadyAt: 60_000}, owner)
	enemy := m.Seed(warrior.Warrior{Name: "B", Power: 100, Defense: 100}, rival)

	tx, err := m.Battle(ctx, ally, enemy)
	require.NoError(t, err)
	err = tx.Wait(ctx)
	require.True(t, IsReverted(err), "battle before cooldown should revert, got %v", err)
}

func TestMemLedger_BattleResolvesAndResetsCooldown(t *testing.T) {
	ctx := context.Background()
	m := NewMemLedger(owner)
	now := time.Unix(50_000, 0)
	m.SetClock(func() time.Time { return now })
	m.SetCooldown(24 * time.Hour)

	ally := m.Seed(warrior.Warrior{Name: "A", Power: 900, Defense: 100}, owner)
	enemy := m.Seed(warrior.Warrior{Name: "B", Power: 100, Defense: 100}, rival)

	tx, err := m.Battle(ctx, ally, enemy)
	require.NoError(t, err)
	require.NoError(t, tx.Wait(ctx))

	a, err := m.Warrior(ctx, ally)
	require.NoError(t, err)
	e, err := m.Warrior(ctx, enemy)
	require.NoError(t, err)

	require.EqualValues(t, 1, a.WinCount)
	require.EqualValues(t, 1, e.LossCount)
	require.Equal(t, now.Add(24*time.Hour).Unix(), a.ReadyAt)
}

func TestMemLedger_MyWarriorsEmptyForUnknownOwner(t *testing.T) {
	ctx := context.Background()
	m := NewMemLedger(owner)
	m.Seed(warrior.Warrior{Name: "A"}, rival)

	ids, err := m.MyWarriors(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestIsReverted(t *testing.T) {
	require.False(t, IsReverted(nil))
	require.False(t, IsReverted(errors.New("connection refused")))
	require.True(t, IsReverted(errors.New("rpc: execution reverted")))
	require.True(t, IsReverted(ErrReverted))
}
