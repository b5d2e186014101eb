// Package ledger abstracts the on-chain contract and the wallet layer the
// client talks to. The contract is authoritative for all game state; the
// client only reads snapshots and submits transactions.
package ledger

import (
	"context"
	"math/big"

	"github.com/eakarabulut/warriors-dapp/internal/warrior"
)

// LevelUpFee is the fixed fee attached to every level-up transaction,
// denominated in wei (0.001 ETH).
var LevelUpFee = big.NewInt(1_000_000_000_000_000)

// PendingTx is a submitted mutating transaction. Wait blocks until the
// remote reaches a terminal outcome: nil means confirmed with effects
// applied, ErrReverted (possibly wrapped) means the contract rejected it.
type PendingTx interface {
	Hash() string
	Wait(ctx context.Context) error
}

// Ledger is the contract surface the client consumes. A handle is bound to
// one sender identity; all mutating calls are signed as that identity.
type Ledger interface {
	MyWarriors(ctx context.Context, owner string) ([]uint64, error)
	Warrior(ctx context.Context, id uint64) (warrior.Warrior, error)
	OwnerOf(ctx context.Context, id uint64) (string, error)
	TokenURI(ctx context.Context, id uint64) (string, error)

	CreateWarrior(ctx context.Context, name string, class warrior.Class, power, defense uint64, tokenURI string) (PendingTx, error)
	LevelUpWithFee(ctx context.Context, id uint64, fee *big.Int) (PendingTx, error)
	Battle(ctx context.Context, allyID, enemyID uint64) (PendingTx, error)
}

type ChangeKind string

const (
	ChangeAccount ChangeKind = "account"
	ChangeNetwork ChangeKind = "network"
)

// Change is an external signal from the wallet layer. Either kind requires
// a full session reset; there is no incremental recovery.
type Change struct {
	Kind ChangeKind
}

// Wallet is the identity/network layer. Signing and broadcast live behind
// the Ledger handle; Wallet only answers who and where we are.
type Wallet interface {
	Account(ctx context.Context) (string, error)
	ChainID(ctx context.Context) (uint64, error)
	CodeAt(ctx context.Context, contractAddr string) ([]byte, error)
	// Changes delivers account/network change signals for the lifetime of
	// the wallet. May be a channel that never fires.
	Changes() <-chan Change
}
