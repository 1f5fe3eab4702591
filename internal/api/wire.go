//go:build wireinject

package api

import (
	"github.com/go-redis/redis/v8"
	"github.com/google/wire"
	"github/chapool/go-txrelay/internal/config"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewClock,
	NewMetrics,
	NewMetaQueue,
	NewNativeQueue,
	NewRelayClient,
	NewChainClient,
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NewRedisClient)
	return new(Server), nil
}

// InitNewServerWithRedis returns a new Server instance with the given redis client.
// All the other components are initialized via go wire according to the configuration.
func InitNewServerWithRedis(
	_ config.Server,
	_ *redis.Client,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
