package obs

import (
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
)

// InstrumentRedisTracing attaches OpenTelemetry hooks to the redis client so
// snapshot cache commands show up as spans under the catalog load trace.
func InstrumentRedisTracing(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return redisotel.InstrumentTracing(client)
}
