package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/eakarabulut/warriors-dapp/internal/warrior"
)

// warriorsABI is the contract surface the client consumes. Kept inline so
// the adapter has no generated-code dependency.
const warriorsABI = `[
	{"type":"function","name":"getMyWarriors","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"warriors","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"name","type":"string"},{"name":"class","type":"string"},{"name":"power","type":"uint256"},{"name":"defense","type":"uint256"},{"name":"level","type":"uint256"},{"name":"winCount","type":"uint256"},{"name":"lossCount","type":"uint256"},{"name":"readyTime","type":"uint256"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"createWarrior","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"},{"name":"class","type":"string"},{"name":"power","type":"uint256"},{"name":"defense","type":"uint256"},{"name":"tokenURI","type":"string"}],"outputs":[]},
	{"type":"function","name":"levelUpWithFee","stateMutability":"payable","inputs":[{"name":"warriorId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"battle","stateMutability":"nonpayable","inputs":[{"name":"allyId","type":"uint256"},{"name":"enemyId","type":"uint256"}],"outputs":[]}
]`

// EthLedger binds the warriors contract over a JSON-RPC client. One
// instance is scoped to a single signing key.
type EthLedger struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	opts     *bind.TransactOpts
	addr     common.Address
}

func NewEthLedger(client *ethclient.Client, contractAddr common.Address, key *ecdsa.PrivateKey, chainID *big.Int) (*EthLedger, error) {
	parsed, err := abi.JSON(strings.NewReader(warriorsABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("bind transactor: %w", err)
	}
	return &EthLedger{
		client:   client,
		contract: bind.NewBoundContract(contractAddr, parsed, client, client, client),
		opts:     opts,
		addr:     contractAddr,
	}, nil
}

func (l *EthLedger) MyWarriors(ctx context.Context, owner string) ([]uint64, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getMyWarriors", common.HexToAddress(owner)); err != nil {
		return nil, fmt.Errorf("getMyWarriors: %w", err)
	}
	raw := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	ids := make([]uint64, len(raw))
	for i, v := range raw {
		ids[i] = v.Uint64()
	}
	return ids, nil
}

func (l *EthLedger) Warrior(ctx context.Context, id uint64) (warrior.Warrior, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "warriors", new(big.Int).SetUint64(id)); err != nil {
		if IsReverted(err) {
			return warrior.Warrior{}, fmt.Errorf("warriors(%d): %w", id, ErrUnassignedID)
		}
		return warrior.Warrior{}, fmt.Errorf("warriors(%d): %w", id, err)
	}
	return warrior.Warrior{
		ID:        id,
		Name:      *abi.ConvertType(out[0], new(string)).(*string),
		Class:     warrior.Class(*abi.ConvertType(out[1], new(string)).(*string)),
		Power:     (*abi.ConvertType(out[2], new(*big.Int)).(**big.Int)).Uint64(),
		Defense:   (*abi.ConvertType(out[3], new(*big.Int)).(**big.Int)).Uint64(),
		Level:     (*abi.ConvertType(out[4], new(*big.Int)).(**big.Int)).Uint64(),
		WinCount:  (*abi.ConvertType(out[5], new(*big.Int)).(**big.Int)).Uint64(),
		LossCount: (*abi.ConvertType(out[6], new(*big.Int)).(**big.Int)).Uint64(),
		ReadyAt:   (*abi.ConvertType(out[7], new(*big.Int)).(**big.Int)).Int64(),
	}, nil
}

func (l *EthLedger) OwnerOf(ctx context.Context, id uint64) (string, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "ownerOf", new(big.Int).SetUint64(id)); err != nil {
		if IsReverted(err) {
			return "", fmt.Errorf("ownerOf(%d): %w", id, ErrUnassignedID)
		}
		return "", fmt.Errorf("ownerOf(%d): %w", id, err)
	}
	return abi.ConvertType(out[0], new(common.Address)).(*common.Address).Hex(), nil
}

func (l *EthLedger) TokenURI(ctx context.Context, id uint64) (string, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "tokenURI", new(big.Int).SetUint64(id)); err != nil {
		return "", fmt.Errorf("tokenURI(%d): %w", id, err)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (l *EthLedger) CreateWarrior(ctx context.Context, name string, class warrior.Class, power, defense uint64, tokenURI string) (PendingTx, error) {
	opts := l.txOpts(ctx, nil)
	tx, err := l.contract.Transact(opts, "createWarrior", name, string(class),
		new(big.Int).SetUint64(power), new(big.Int).SetUint64(defense), tokenURI)
	if err != nil {
		return nil, fmt.Errorf("createWarrior: %w", err)
	}
	return &ethPendingTx{client: l.client, tx: tx}, nil
}

func (l *EthLedger) LevelUpWithFee(ctx context.Context, id uint64, fee *big.Int) (PendingTx, error) {
	opts := l.txOpts(ctx, fee)
	tx, err := l.contract.Transact(opts, "levelUpWithFee", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, fmt.Errorf("levelUpWithFee(%d): %w", id, err)
	}
	return &ethPendingTx{client: l.client, tx: tx}, nil
}

func (l *EthLedger) Battle(ctx context.Context, allyID, enemyID uint64) (PendingTx, error) {
	opts := l.txOpts(ctx, nil)
	tx, err := l.contract.Transact(opts, "battle",
		new(big.Int).SetUint64(allyID), new(big.Int).SetUint64(enemyID))
	if err != nil {
		return nil, fmt.Errorf("battle(%d, %d): %w", allyID, enemyID, err)
	}
	return &ethPendingTx{client: l.client, tx: tx}, nil
}

func (l *EthLedger) txOpts(ctx context.Context, value *big.Int) *bind.TransactOpts {
	opts := *l.opts
	opts.Context = ctx
	opts.Value = value
	return &opts
}

type ethPendingTx struct {
	client *ethclient.Client
	tx     *types.Transaction
}

func (p *ethPendingTx) Hash() string { return p.tx.Hash().Hex() }

func (p *ethPendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.client, p.tx)
	if err != nil {
		return fmt.Errorf("wait mined %s: %w", p.Hash(), err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return fmt.Errorf("tx %s: %w", p.Hash(), ErrReverted)
	}
	return nil
}

// EthWallet answers identity and network questions from a local signing key
// plus the RPC client. A local key never changes out from under us, so the
// change channel never fires.
type EthWallet struct {
	client  *ethclient.Client
	account common.Address
	changes chan Change
}

func NewEthWallet(client *ethclient.Client, key *ecdsa.PrivateKey) *EthWallet {
	return &EthWallet{
		client:  client,
		account: crypto.PubkeyToAddress(key.PublicKey),
		changes: make(chan Change),
	}
}

func (w *EthWallet) Account(ctx context.Context) (string, error) {
	return w.account.Hex(), nil
}

func (w *EthWallet) ChainID(ctx context.Context) (uint64, error) {
	id, err := w.client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain id: %w", err)
	}
	return id.Uint64(), nil
}

func (w *EthWallet) CodeAt(ctx context.Context, contractAddr string) ([]byte, error) {
	code, err := w.client.CodeAt(ctx, common.HexToAddress(contractAddr), nil)
	if err != nil {
		return nil, fmt.Errorf("code at %s: %w", contractAddr, err)
	}
	return code, nil
}

func (w *EthWallet) Changes() <-chan Change { return w.changes }
