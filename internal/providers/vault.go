package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/userpass"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

// HTTPClientTimeout http client timeout
const HTTPClientTimeout = 10 * time.Second

const vaultUserPassUsername = "certificatenode"

// Config holds the vault connection settings
type Config struct {
	Address             string
	Token               string
	UserPassAuthEnabled bool
	Pass                string
}

// VaultClient checks vault configuration and creates new vault client.
// With userpass auth enabled the token is obtained by logging in.
func VaultClient(ctx context.Context, cfg Config) (*api.Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("vault address is not specified")
	}
	if !cfg.UserPassAuthEnabled && cfg.Token == "" {
		return nil, errors.New("vault access token is not specified")
	}
	if cfg.UserPassAuthEnabled && cfg.Pass == "" {
		return nil, errors.New("vault userpass password is not specified")
	}

	config := api.DefaultConfig()
	config.Address = cfg.Address
	config.HttpClient.Timeout = HTTPClientTimeout

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	if !cfg.UserPassAuthEnabled {
		client.SetToken(cfg.Token)
		return client, nil
	}

	auth, err := userpass.NewUserpassAuth(vaultUserPassUsername, &userpass.Password{FromString: cfg.Pass})
	if err != nil {
		return nil, fmt.Errorf("cannot initialize userpass auth: %w", err)
	}
	secret, err := client.Auth().Login(ctx, auth)
	if err != nil {
		log.Error(ctx, "vault userpass login failed", "err", err)
		return nil, err
	}
	if secret == nil || secret.Auth == nil {
		return nil, errors.New("vault userpass login returned no auth info")
	}
	return client, nil
}
