package config

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Load overlays the file at path (TOML, YAML or JSON, by extension) on top of
// DefaultServiceConfigFromEnv. Keys missing from the file keep their env value.
func Load(path string) (Server, error) {
	cfg := DefaultServiceConfigFromEnv()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Server{}, errors.Wrapf(err, "failed to read config file %s", path)
	}

	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToLevelHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return Server{}, errors.Wrapf(err, "failed to decode config file %s", path)
	}

	return cfg, nil
}

func stringToLevelHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(zerolog.Level(0)) {
			return data, nil
		}

		level, err := zerolog.ParseLevel(strings.TrimSpace(data.(string))) //nolint:forcetypeassert // checked via from.Kind()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", data)
		}

		return level, nil
	}
}

// Validate reports the first setting that makes the config unusable.
func (s Server) Validate() error {
	if s.Chain.ID <= 0 {
		return errors.New("chain.id must be positive")
	}
	if len(s.Chain.RPCURLs) == 0 {
		return errors.New("chain.rpc_urls must not be empty")
	}
	if s.Relay.URL == "" {
		return errors.New("relay.url must be set")
	}
	if s.Domain.Name == "" {
		return errors.New("domain.name must be set")
	}

	switch s.Nonce.Backend {
	case BackendMemory, BackendPostgres:
	default:
		return errors.Errorf("nonce.backend %q is not one of %s, %s", s.Nonce.Backend, BackendMemory, BackendPostgres)
	}

	switch s.Queue.Backend {
	case BackendMemory:
	case BackendRedis:
		if s.Redis.Addr == "" {
			return errors.New("redis.addr must be set when queue.backend is redis")
		}
	default:
		return errors.Errorf("queue.backend %q is not one of %s, %s", s.Queue.Backend, BackendMemory, BackendRedis)
	}

	switch s.Wallet.Approval {
	case ApprovalAuto, ApprovalTerminal:
	default:
		return errors.Errorf("wallet.approval %q is not one of %s, %s", s.Wallet.Approval, ApprovalAuto, ApprovalTerminal)
	}

	return nil
}

// FileFlag is the persistent CLI flag holding the path passed to Load.
const FileFlag = "config"
