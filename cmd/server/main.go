package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/eakarabulut/warriors-dapp/internal/app"
	"github.com/eakarabulut/warriors-dapp/internal/httpapi"
	"github.com/eakarabulut/warriors-dapp/internal/ledger"
	"github.com/eakarabulut/warriors-dapp/internal/roster"
	"github.com/eakarabulut/warriors-dapp/internal/session"
)

type Config struct {
	Addr            string `env:"ADDR" envDefault:":8080"`
	RPCURL          string `env:"ETH_RPC_URL"`
	ContractAddress string `env:"CONTRACT_ADDRESS"`
	PrivateKey      string `env:"PRIVATE_KEY"`
	ProbeLimit      int    `env:"PROBE_LIMIT" envDefault:"100"`

	// DevMode swaps the Ethereum backends for in-memory ones.
	DevMode    bool   `env:"DEV_MODE" envDefault:"false"`
	DevAccount string `env:"DEV_ACCOUNT" envDefault:"0x00000000000000000000000000000000000000aa"`
}

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	wallet, ldg, err := buildBackends(ctx, cfg)
	if err != nil {
		logger.Fatal("build backends", zap.Error(err))
	}

	mgr := session.NewManager(ctx, wallet, ldg, cfg.ContractAddress, logger)
	fetcher := roster.NewFetcher(ldg, logger, cfg.ProbeLimit)
	a := app.New(ctx, mgr, fetcher, logger)

	handler := httpapi.SetupRoutes(a)

	logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("dev_mode", cfg.DevMode))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func buildBackends(ctx context.Context, cfg Config) (ledger.Wallet, ledger.Ledger, error) {
	if cfg.DevMode {
		return ledger.NewMemWallet(cfg.DevAccount, session.ChainSepolia), ledger.NewMemLedger(cfg.DevAccount), nil
	}

	if cfg.RPCURL == "" || cfg.ContractAddress == "" || cfg.PrivateKey == "" {
		return nil, nil, fmt.Errorf("ETH_RPC_URL, CONTRACT_ADDRESS and PRIVATE_KEY are required outside dev mode")
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rpc: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, nil, fmt.Errorf("parse private key: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch chain id: %w", err)
	}

	ldg, err := ledger.NewEthLedger(client, common.HexToAddress(cfg.ContractAddress), key, chainID)
	if err != nil {
		return nil, nil, err
	}
	return ledger.NewEthWallet(client, key), ldg, nil
}
