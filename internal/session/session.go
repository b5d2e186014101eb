// Package session establishes and owns the remote session: the active
// identity, the classified network, and the ledger handle bound to them.
// A wallet-signalled account or network change invalidates the whole
// session; derived state is never patched incrementally.
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eakarabulut/warriors-dapp/internal/ledger"
)

const (
	ChainSepolia uint64 = 11155111
	ChainMainnet uint64 = 1
)

type NetworkClass string

const (
	NetworkTest  NetworkClass = "test"
	NetworkMain  NetworkClass = "main"
	NetworkOther NetworkClass = "other"
)

// Info is the user-facing identity of a session.
type Info struct {
	Account     string       `json:"account"`
	ChainID     uint64       `json:"chain_id"`
	NetworkName string       `json:"network_name"`
	Network     NetworkClass `json:"network"`
	Warning     string       `json:"warning,omitempty"`
}

// Session binds an identity to a ledger handle. All fetches and writes for
// this identity go through Ledger until the session is invalidated.
type Session struct {
	Info   Info
	Ledger ledger.Ledger
}

// ClassifyNetwork maps a chain id to its user-facing treatment. Production
// mainnet gets a warning; unrecognized networks show the raw id.
func ClassifyNetwork(chainID uint64) (name string, class NetworkClass, warning string) {
	switch chainID {
	case ChainSepolia:
		return "Sepolia Testnet", NetworkTest, ""
	case ChainMainnet:
		return "Ethereum Mainnet", NetworkMain, "you are on mainnet; use Sepolia for testing"
	default:
		return fmt.Sprintf("Network ID: %d", chainID), NetworkOther, ""
	}
}

type Msg interface{ isSessionMsg() }

type Connect struct {
	Reply chan Result
}

type Get struct {
	Reply chan *Session
}

type Invalidate struct {
	Change ledger.Change
}

type Shutdown struct{}

func (Connect) isSessionMsg()    {}
func (Get) isSessionMsg()        {}
func (Invalidate) isSessionMsg() {}
func (Shutdown) isSessionMsg()   {}

type Result struct {
	Session *Session
	Err     error
}

// Manager is the session actor. All session state lives in its loop
// goroutine; callers interact through Inbox messages with reply channels.
type Manager struct {
	inbox        chan Msg
	wallet       ledger.Wallet
	ledger       ledger.Ledger
	contractAddr string
	current      *Session
	invalidated  chan ledger.Change
	log          *zap.Logger
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewManager(parent context.Context, wallet ledger.Wallet, l ledger.Ledger, contractAddr string, log *zap.Logger) *Manager {
	ctx, cancel := context.WithCancel(parent)
	m := &Manager{
		inbox:        make(chan Msg, 64),
		wallet:       wallet,
		ledger:       l,
		contractAddr: contractAddr,
		invalidated:  make(chan ledger.Change, 4),
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
	}
	go m.loop()
	go m.watch()
	return m
}

func (m *Manager) Inbox() chan<- Msg { return m.inbox }

// Invalidated delivers one signal per wallet-driven session teardown, so
// the view layer can clear every derived snapshot before refetching.
func (m *Manager) Invalidated() <-chan ledger.Change { return m.invalidated }

// watch forwards wallet change signals into the actor loop.
func (m *Manager) watch() {
	for {
		select {
		case <-m.ctx.Done():
			return
		case ch, ok := <-m.wallet.Changes():
			if !ok {
				return
			}
			m.inbox <- Invalidate{Change: ch}
		}
	}
}

func (m *Manager) loop() {
	for {
		select {
		case <-m.ctx.Done():
			return

		case msg := <-m.inbox:
			switch msg := msg.(type) {
			case Connect:
				s, err := m.connect()
				if err == nil {
					m.current = s
				}
				msg.Reply <- Result{Session: s, Err: err}

			case Get:
				msg.Reply <- m.current // may be nil

			case Invalidate:
				m.log.Info("session invalidated", zap.String("change", string(msg.Change.Kind)))
				m.current = nil
				select {
				case m.invalidated <- msg.Change:
				default:
				}

			case Shutdown:
				m.current = nil
				m.cancel()
				return
			}
		}
	}
}

func (m *Manager) connect() (*Session, error) {
	account, err := m.wallet.Account(m.ctx)
	if err != nil {
		return nil, fmt.Errorf("request account: %w", err)
	}

	chainID, err := m.wallet.ChainID(m.ctx)
	if err != nil {
		return nil, fmt.Errorf("identify network: %w", err)
	}
	name, class, warning := ClassifyNetwork(chainID)

	// Verify the configured address actually hosts contract code. Catching
	// a bad address here is a configuration error; failing later on the
	// first call would be a confusing runtime fault.
	code, err := m.wallet.CodeAt(m.ctx, m.contractAddr)
	if err != nil {
		return nil, fmt.Errorf("verify contract code: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", ledger.ErrNoContractCode, m.contractAddr)
	}

	m.log.Info("session established",
		zap.String("account", account),
		zap.Uint64("chain_id", chainID),
		zap.String("network", name))

	return &Session{
		Info: Info{
			Account:     account,
			ChainID:     chainID,
			NetworkName: name,
			Network:     class,
			Warning:     warning,
		},
		Ledger: m.ledger,
	}, nil
}
