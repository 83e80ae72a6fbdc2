package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/scrolluniversity/certificate-node/internal/config"
	"github.com/scrolluniversity/certificate-node/internal/kms"
	"github.com/scrolluniversity/certificate-node/internal/log"
)

// This is a tool to import the ethereum private key that signs ledger transactions into the configured key store.
func main() {
	fPrivateKey := flag.String("privateKey", "", "metamask private key")
	fEnvFile := flag.String("env", "", "env file to load before reading the configuration")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag.Parse()
	if *fPrivateKey == "" {
		log.Error(ctx, "private key is required")
		return
	}

	privateKey := strings.TrimPrefix(*fPrivateKey, "0x")
	if _, err := crypto.HexToECDSA(privateKey); err != nil {
		log.Error(ctx, "cannot convert private key to ECDSA", "err", err)
		return
	}

	cfg, err := config.Load(*fEnvFile)
	if err != nil {
		log.Error(ctx, "cannot load config", "err", err)
		return
	}
	log.Config(cfg.Log.Level, cfg.Log.Mode, os.Stdout)

	if cfg.Ethereum.PublishingKeyPath == "" {
		log.Error(ctx, "ISSUER_ETHEREUM_PUBLISHING_KEY_PATH is not set")
		return
	}

	keyStore, err := kms.Open(ctx, cfg.KeyStore)
	if err != nil {
		log.Error(ctx, "cannot initialize key store", "err", err, "provider", cfg.KeyStore.Provider)
		return
	}

	keyID, err := keyStore.ImportKey(ctx, kms.KeyTypeEthereum, cfg.Ethereum.PublishingKeyPath, privateKey)
	if err != nil {
		log.Error(ctx, "cannot import private key", "err", err)
		return
	}

	log.Info(ctx, "private key imported", "provider", cfg.KeyStore.Provider, "keyID", keyID.ID)
}
