package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github/chapool/go-txrelay/internal/util"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	ApprovalAuto     = "auto"
	ApprovalTerminal = "terminal"
)

type EchoServer struct {
	Debug         bool   `mapstructure:"debug" toml:"debug"`
	ListenAddress string `mapstructure:"listen_address" toml:"listen_address"`
}

type LoggerServer struct {
	Level              zerolog.Level `mapstructure:"level" toml:"level"`
	PrettyPrintConsole bool          `mapstructure:"pretty_print_console" toml:"pretty_print_console"`
}

type Management struct {
	ReadinessTimeout time.Duration `mapstructure:"readiness_timeout" toml:"readiness_timeout"`
}

type Chain struct {
	ID      int64    `mapstructure:"id" toml:"id"`
	RPCURLs []string `mapstructure:"rpc_urls" toml:"rpc_urls"`
}

type Relay struct {
	URL     string        `mapstructure:"url" toml:"url"`
	Timeout time.Duration `mapstructure:"timeout" toml:"timeout"`
}

// Domain is the EIP-712 domain protocol calls are signed against.
type Domain struct {
	Name              string        `mapstructure:"name" toml:"name"`
	Version           string        `mapstructure:"version" toml:"version"`
	VerifyingContract string        `mapstructure:"verifying_contract" toml:"verifying_contract"`
	CallTTL           time.Duration `mapstructure:"call_ttl" toml:"call_ttl"`
}

type Nonce struct {
	Backend        string        `mapstructure:"backend" toml:"backend"`
	ReservationTTL time.Duration `mapstructure:"reservation_ttl" toml:"reservation_ttl"`
}

type Queue struct {
	Backend        string        `mapstructure:"backend" toml:"backend"`
	KeyPrefix      string        `mapstructure:"key_prefix" toml:"key_prefix"`
	TTL            time.Duration `mapstructure:"ttl" toml:"ttl"`
	PersistTimeout time.Duration `mapstructure:"persist_timeout" toml:"persist_timeout"`
}

type Redis struct {
	Addr     string `mapstructure:"addr" toml:"addr"`
	Password string `mapstructure:"password" toml:"password"`
	DB       int    `mapstructure:"db" toml:"db"`
}

type Database struct {
	Host            string        `mapstructure:"host" toml:"host"`
	Port            int           `mapstructure:"port" toml:"port"`
	Username        string        `mapstructure:"username" toml:"username"`
	Password        string        `mapstructure:"password" toml:"password"`
	Database        string        `mapstructure:"database" toml:"database"`
	SSLMode         string        `mapstructure:"sslmode" toml:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" toml:"conn_max_lifetime"`
}

// ConnectionString generates a connection string to be passed to sql.Open or equivalents, assuming Postgres syntax
func (c Database) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}

	return u.String()
}

type Reconcile struct {
	Enabled  bool          `mapstructure:"enabled" toml:"enabled"`
	Interval time.Duration `mapstructure:"interval" toml:"interval"`
}

type Wallet struct {
	KeystorePath string `mapstructure:"keystore_path" toml:"keystore_path"`
	AccountIndex uint32 `mapstructure:"account_index" toml:"account_index"`
	LightScrypt  bool   `mapstructure:"light_scrypt" toml:"light_scrypt"`
	Approval     string `mapstructure:"approval" toml:"approval"`
}

type Server struct {
	Echo       EchoServer   `mapstructure:"echo" toml:"echo"`
	Logger     LoggerServer `mapstructure:"logger" toml:"logger"`
	Management Management   `mapstructure:"management" toml:"management"`
	Chain      Chain        `mapstructure:"chain" toml:"chain"`
	Relay      Relay        `mapstructure:"relay" toml:"relay"`
	Domain     Domain       `mapstructure:"domain" toml:"domain"`
	Nonce      Nonce        `mapstructure:"nonce" toml:"nonce"`
	Queue      Queue        `mapstructure:"queue" toml:"queue"`
	Redis      Redis        `mapstructure:"redis" toml:"redis"`
	Database   Database     `mapstructure:"database" toml:"database"`
	Reconcile  Reconcile    `mapstructure:"reconcile" toml:"reconcile"`
	Wallet     Wallet       `mapstructure:"wallet" toml:"wallet"`
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
// Do NOT use os.Setenv / os.Unsetenv in tests utilizing DefaultServiceConfigFromEnv()!
func DefaultServiceConfigFromEnv() Server {
	const (
		defaultPostgresPort = 5432
		defaultChainID      = 1337
		defaultMaxOpenConns = 10
	)

	level, err := zerolog.ParseLevel(util.GetEnv("SERVER_LOGGER_LEVEL", zerolog.DebugLevel.String()))
	if err != nil {
		level = zerolog.DebugLevel
	}

	return Server{
		Echo: EchoServer{
			Debug:         util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			ListenAddress: util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
		},
		Logger: LoggerServer{
			Level:              level,
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Management: Management{
			ReadinessTimeout: util.GetEnvAsDuration("SERVER_MANAGEMENT_READINESS_TIMEOUT", 4*time.Second),
		},
		Chain: Chain{
			ID:      util.GetEnvAsInt64("CHAIN_ID", defaultChainID),
			RPCURLs: util.GetEnvAsStringArr("CHAIN_RPC_URLS", []string{"http://127.0.0.1:8545"}),
		},
		Relay: Relay{
			URL:     util.GetEnv("RELAY_URL", "http://127.0.0.1:8090"),
			Timeout: util.GetEnvAsDuration("RELAY_TIMEOUT", 15*time.Second),
		},
		Domain: Domain{
			Name:              util.GetEnv("DOMAIN_NAME", "TxRelay"),
			Version:           util.GetEnv("DOMAIN_VERSION", "1"),
			VerifyingContract: util.GetEnv("DOMAIN_VERIFYING_CONTRACT", ""),
			CallTTL:           util.GetEnvAsDuration("DOMAIN_CALL_TTL", 30*time.Minute),
		},
		Nonce: Nonce{
			Backend:        util.GetEnv("NONCE_BACKEND", BackendMemory),
			ReservationTTL: util.GetEnvAsDuration("NONCE_RESERVATION_TTL", 10*time.Minute),
		},
		Queue: Queue{
			Backend:        util.GetEnv("QUEUE_BACKEND", BackendMemory),
			KeyPrefix:      util.GetEnv("QUEUE_KEY_PREFIX", "txrelay:queue"),
			TTL:            util.GetEnvAsDuration("QUEUE_TTL", 0),
			PersistTimeout: util.GetEnvAsDuration("QUEUE_PERSIST_TIMEOUT", 5*time.Second),
		},
		Redis: Redis{
			Addr:     util.GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: util.GetEnv("REDIS_PASSWORD", ""),
			DB:       util.GetEnvAsInt("REDIS_DB", 0),
		},
		Database: Database{
			Host:            util.GetEnv("PGHOST", "postgres"),
			Port:            util.GetEnvAsInt("PGPORT", defaultPostgresPort),
			Username:        util.GetEnv("PGUSER", "dbuser"),
			Password:        util.GetEnv("PGPASSWORD", ""),
			Database:        util.GetEnv("PGDATABASE", "txrelay"),
			SSLMode:         util.GetEnv("PGSSLMODE", "disable"),
			MaxOpenConns:    util.GetEnvAsInt("DB_MAX_OPEN_CONNS", defaultMaxOpenConns),
			MaxIdleConns:    util.GetEnvAsInt("DB_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: util.GetEnvAsDuration("DB_CONN_MAX_LIFETIME", 60*time.Second),
		},
		Reconcile: Reconcile{
			Enabled:  util.GetEnvAsBool("RECONCILE_ENABLED", true),
			Interval: util.GetEnvAsDuration("RECONCILE_INTERVAL", 15*time.Second),
		},
		Wallet: Wallet{
			KeystorePath: util.GetEnv("WALLET_KEYSTORE_PATH", "./keystore/keystore.json"),
			AccountIndex: uint32(util.GetEnvAsInt("WALLET_ACCOUNT_INDEX", 0)), //nolint:gosec // account indexes are small
			LightScrypt:  util.GetEnvAsBool("WALLET_LIGHT_SCRYPT", false),
			Approval:     util.GetEnv("WALLET_APPROVAL", ApprovalTerminal),
		},
	}
}
