package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

const envPrefix = "ISSUER_"

// Cache providers
const (
	CacheProviderRedis  = "redis"
	CacheProviderValKey = "valkey"
	CacheProviderMemory = "memory"
)

// PubSub providers
const (
	PubSubProviderRedis  = "redis"
	PubSubProviderValKey = "valkey"
	PubSubProviderKafka  = "kafka"
	PubSubProviderNone   = "none"
)

// Key store providers
const (
	KeyStoreProviderLocalStorage = "localstorage"
	KeyStoreProviderVault        = "vault"
	KeyStoreProviderAWSSM        = "aws-sm"
)

// Gateway drivers
const (
	DriverIPFS     = "ipfs"
	DriverEthereum = "eth"
	DriverMemory   = "memory"
)

// Configuration holds the project configuration
type Configuration struct {
	ServerUrl     string        `env:"SERVER_URL" envDefault:"http://localhost:3001"`
	ServerPort    int           `env:"SERVER_PORT" envDefault:"3001"`
	Database      Database      `envPrefix:"DATABASE_"`
	Cache         Cache         `envPrefix:"CACHE_"`
	PubSub        PubSub        `envPrefix:"PUBSUB_"`
	HTTPBasicAuth HTTPBasicAuth `envPrefix:"API_AUTH_"`
	KeyStore      KeyStore      `envPrefix:"KEY_STORE_"`
	Log           Log           `envPrefix:"LOG_"`
	Ethereum      Ethereum      `envPrefix:"ETHEREUM_"`
	Ledger        Ledger        `envPrefix:"LEDGER_"`
	IPFS          IPFS          `envPrefix:"IPFS_"`
	Certificates  Certificates  `envPrefix:"CERTIFICATES_"`
	Notifications Notifications `envPrefix:"NOTIFICATIONS_"`
	Expirer       Expirer       `envPrefix:"EXPIRER_"`
}

// Database has the database configuration
// URL: The database connection string
type Database struct {
	URL string `env:"URL" tip:"The Datasource name locator"`
}

// Cache configurations
type Cache struct {
	Provider string        `env:"PROVIDER" envDefault:"redis" tip:"Cache provider: redis, valkey or memory"`
	URL      string        `env:"URL" tip:"The redis/valkey url to use as a cache"`
	TTL      time.Duration `env:"TTL" envDefault:"10m" tip:"Certificate lookup cache ttl"`
}

// PubSub configuration. Lifecycle events are published to this broker.
type PubSub struct {
	Provider      string `env:"PROVIDER" envDefault:"redis" tip:"PubSub provider: redis, valkey, kafka or none"`
	URL           string `env:"URL" tip:"Redis or valkey url. Falls back to the cache url"`
	KafkaBrokers  string `env:"KAFKA_BROKERS" tip:"Comma separated list of kafka brokers"`
	KafkaUser     string `env:"KAFKA_USER"`
	KafkaPassword string `env:"KAFKA_PASSWORD"`
}

// HTTPBasicAuth configuration. The certificate endpoints are protected with basic http auth.
type HTTPBasicAuth struct {
	User     string `env:"USER" tip:"Basic auth username"`
	Password string `env:"PASSWORD" tip:"Basic auth password"`
}

// KeyStore defines where the ledger publishing key lives
type KeyStore struct {
	Provider                  string `env:"PROVIDER" envDefault:"localstorage" tip:"localstorage, vault or aws-sm"`
	Address                   string `env:"ADDRESS" tip:"Vault address"`
	Token                     string `env:"TOKEN" tip:"Vault token"`
	VaultUserPassAuthEnabled  bool   `env:"VAULT_USERPASS_AUTH_ENABLED"`
	VaultUserPassAuthPassword string `env:"VAULT_USERPASS_AUTH_PASSWORD"`
	LocalStorageFilePath      string `env:"LOCAL_STORAGE_FILE_PATH" envDefault:"./kms_localstorage_keys.json"`
	AWSAccessKey              string `env:"AWS_ACCESS_KEY"`
	AWSSecretKey              string `env:"AWS_SECRET_KEY"`
	AWSRegion                 string `env:"AWS_REGION"`
}

// Log holds runtime configurations
//
// Level: The minimum log level to show on logs. Values can be
//
//	 -4: Debug
//		0: Info
//		4: Warning
//		8: Error
//	 The default log level is debug
//
// Mode: Log mode is the format of the log. It can be text or json
// 1: JSON
// 2: Text
// The default log formal is JSON
type Log struct {
	Level int `env:"LEVEL" envDefault:"-4" tip:"Minimum level to log: (-4:Debug, 0:Info, 4:Warning, 8:Error)"`
	Mode  int `env:"MODE" envDefault:"1" tip:"Log format (1: JSON, 2:Structured text)"`
}

// Ethereum struct
type Ethereum struct {
	URL                    string        `env:"URL" tip:"Ethereum url"`
	ContractAddress        string        `env:"CONTRACT_ADDRESS" tip:"Certificate registry contract address"`
	PublishingKeyPath      string        `env:"PUBLISHING_KEY_PATH" envDefault:"pbkey" tip:"KMS key id used to sign ledger transactions"`
	ConfirmationTimeout    time.Duration `env:"CONFIRMATION_TIME_OUT" envDefault:"10s" tip:"Confirmation timeout"`
	ConfirmationBlockCount int64         `env:"CONFIRMATION_BLOCK_COUNT" envDefault:"5" tip:"Confirmation block count"`
	ReceiptTimeout         time.Duration `env:"RECEIPT_TIMEOUT" envDefault:"600s" tip:"Receipt timeout"`
	RPCResponseTimeout     time.Duration `env:"RPC_RESPONSE_TIMEOUT" envDefault:"5s" tip:"RPC Response timeout"`
	WaitReceiptCycleTime   time.Duration `env:"WAIT_RECEIPT_CYCLE_TIME" envDefault:"30s" tip:"Wait Receipt Cycle Time"`
	WaitBlockCycleTime     time.Duration `env:"WAIT_BLOCK_CYCLE_TIME" envDefault:"30s" tip:"Wait Block Cycle Time"`
}

// Ledger selects the ledger implementation
type Ledger struct {
	Driver   string `env:"DRIVER" envDefault:"eth" tip:"Ledger driver: eth or memory"`
	SeedFile string `env:"SEED_FILE" tip:"YAML file with accredited institutions for the memory ledger"`
}

// IPFS configuration
type IPFS struct {
	Driver     string `env:"DRIVER" envDefault:"ipfs" tip:"Document store driver: ipfs or memory"`
	APIURL     string `env:"API_URL" envDefault:"localhost:5001" tip:"IPFS node api"`
	GatewayURL string `env:"GATEWAY_URL" envDefault:"https://ipfs.io" tip:"Public IPFS gateway used to build document urls"`
}

// Certificates holds presentation settings derived from certificate ids
type Certificates struct {
	VerificationBaseURL string `env:"VERIFICATION_BASE_URL" envDefault:"https://verify.scrolluniversity.edu"`
	QRCodeBaseURL       string `env:"QR_CODE_BASE_URL" envDefault:"https://api.qrserver.com/v1/create-qr-code/"`
}

// Notifications configures the webhook notified on certificate lifecycle events
type Notifications struct {
	WebhookURL string `env:"WEBHOOK_URL"`
	RetryMax   int    `env:"RETRY_MAX" envDefault:"3"`
}

// Expirer configures the expiration sweep
type Expirer struct {
	Schedule string `env:"SCHEDULE" envDefault:"@every 1h" tip:"Cron schedule of the expiration sweep"`
}

// Sanitize perform some basic checks and sanitizations in the configuration.
// Returns true if config is acceptable, error otherwise.
func (c *Configuration) Sanitize() error {
	sUrl, err := c.validateServerUrl()
	if err != nil {
		return fmt.Errorf("serverUrl is not a valid URL <%s>: %w", c.ServerUrl, err)
	}
	c.ServerUrl = sUrl

	switch c.Ledger.Driver {
	case DriverEthereum:
		if c.Ethereum.URL == "" {
			return errors.New("an ethereum url must be provided for the eth ledger driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown ledger driver <%s>", c.Ledger.Driver)
	}

	switch c.IPFS.Driver {
	case DriverIPFS, DriverMemory:
	default:
		return fmt.Errorf("unknown document store driver <%s>", c.IPFS.Driver)
	}

	c.Certificates.VerificationBaseURL = strings.TrimSuffix(c.Certificates.VerificationBaseURL, "/")
	c.IPFS.GatewayURL = strings.TrimSuffix(c.IPFS.GatewayURL, "/")
	if c.PubSub.URL == "" {
		c.PubSub.URL = c.Cache.URL
	}
	return nil
}

// KafkaBrokerList splits the configured kafka brokers
func (p PubSub) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(p.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Configuration) validateServerUrl() (string, error) {
	sUrl, err := url.ParseRequestURI(c.ServerUrl)
	if err != nil {
		return c.ServerUrl, err
	}
	if sUrl.Scheme == "" {
		return c.ServerUrl, fmt.Errorf("server URL must be an absolute URL")
	}
	sUrl.RawQuery = ""
	return strings.Trim(strings.Trim(sUrl.String(), "/"), "?"), nil
}

// Load loads the configuration from the environment. If fileName is not empty, or a .env file exists
// in the working directory, its variables are loaded first. Variables already present in the
// environment are never overridden.
func Load(fileName string) (*Configuration, error) {
	ctx := context.Background()
	if fileName == "" {
		fileName = ".env"
	}
	if err := godotenv.Load(fileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Error(ctx, "error loading env file", "err", err, "file", fileName)
		return nil, err
	}

	config := &Configuration{}
	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		log.Error(ctx, "error parsing configuration", "err", err)
		return nil, err
	}
	checkEnvVars(ctx, config)
	return config, nil
}

func checkEnvVars(ctx context.Context, cfg *Configuration) {
	if cfg.Database.URL == "" {
		log.Info(ctx, "ISSUER_DATABASE_URL value is missing")
	}

	if cfg.Cache.URL == "" && cfg.Cache.Provider != CacheProviderMemory {
		log.Info(ctx, "ISSUER_CACHE_URL value is missing")
	}

	if cfg.HTTPBasicAuth.User == "" {
		log.Info(ctx, "ISSUER_API_AUTH_USER value is missing")
	}

	if cfg.HTTPBasicAuth.Password == "" {
		log.Info(ctx, "ISSUER_API_AUTH_PASSWORD value is missing")
	}

	if cfg.Ledger.Driver == DriverEthereum {
		if cfg.Ethereum.URL == "" {
			log.Info(ctx, "ISSUER_ETHEREUM_URL value is missing")
		}
		if cfg.Ethereum.ContractAddress == "" {
			log.Info(ctx, "ISSUER_ETHEREUM_CONTRACT_ADDRESS value is missing")
		}
	}

	if cfg.KeyStore.Provider == KeyStoreProviderVault && cfg.KeyStore.Address == "" {
		log.Info(ctx, "ISSUER_KEY_STORE_ADDRESS value is missing")
	}

	if cfg.Notifications.WebhookURL == "" {
		log.Info(ctx, "ISSUER_NOTIFICATIONS_WEBHOOK_URL value is missing")
	}
}
