package geoindex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"servicely/models"
	"servicely/utils"

	"github.com/go-redis/redis/v8"
)

const (
	geoKeyPrefix       = "geo:"
	providersKeyPrefix = "providers:"
	seenKeyPrefix      = "seen:"

	// DefaultTTL bounds how stale a live position may get without a refresh.
	DefaultTTL = 600 * time.Second
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidRadius      = errors.New("radius must be positive")
)

// GeoIndex answers "which providers of a service are live near a point".
// It knows nothing about slot availability.
type GeoIndex interface {
	Add(ctx context.Context, serviceID, providerID string, lon, lat float64) error
	Remove(ctx context.Context, serviceID, providerID string) error
	Search(ctx context.Context, serviceID string, lon, lat, radiusKm float64) ([]models.NearbyProvider, error)
}

// RedisGeoIndex keeps one geo set, one member set and one last-seen set per service.
// A member not refreshed within ttl is dropped on the next Search or Prune; the
// key-level expiry only clears services nobody pings anymore.
type RedisGeoIndex struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisGeoIndex(client *redis.Client, ttl time.Duration) *RedisGeoIndex {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGeoIndex{client: client, ttl: ttl, now: time.Now}
}

// pruneScript removes members whose last ping is at or before ARGV[1] from all
// three keys in one step, so a concurrent refresh is never lost.
var pruneScript = redis.NewScript(`
local stale = redis.call('ZRANGEBYSCORE', KEYS[3], '-inf', ARGV[1])
if #stale == 0 then
	return 0
end
redis.call('ZREM', KEYS[1], unpack(stale))
redis.call('SREM', KEYS[2], unpack(stale))
redis.call('ZREM', KEYS[3], unpack(stale))
return #stale
`)

func GeoKey(serviceID string) string {
	return geoKeyPrefix + serviceID
}

func ProvidersKey(serviceID string) string {
	return providersKeyPrefix + serviceID
}

// SeenKey holds each member's last ping as unix milliseconds.
func SeenKey(serviceID string) string {
	return seenKeyPrefix + serviceID
}

// ServiceIDFromKey extracts the service id from a geo:{serviceId} key.
func ServiceIDFromKey(key string) string {
	return strings.TrimPrefix(key, geoKeyPrefix)
}

func validCoordinates(lon, lat float64) bool {
	return models.NewGeoPoint(lon, lat).Valid()
}

// Add replaces any previous position of providerID, stamps its last-seen time and
// refreshes the expiry of the service keys.
func (g *RedisGeoIndex) Add(ctx context.Context, serviceID, providerID string, lon, lat float64) error {
	if !validCoordinates(lon, lat) {
		return ErrInvalidCoordinates
	}
	geoKey, setKey, seenKey := GeoKey(serviceID), ProvidersKey(serviceID), SeenKey(serviceID)
	seenAt := g.now().UnixMilli()

	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, geoKey, providerID)
		pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
			Name:      providerID,
			Longitude: lon,
			Latitude:  lat,
		})
		pipe.SAdd(ctx, setKey, providerID)
		pipe.ZAdd(ctx, seenKey, &redis.Z{Score: float64(seenAt), Member: providerID})
		pipe.Expire(ctx, geoKey, g.ttl)
		pipe.Expire(ctx, setKey, g.ttl)
		pipe.Expire(ctx, seenKey, g.ttl)
		return nil
	})
	utils.IncGeoIndex("add", err)
	if err != nil {
		return fmt.Errorf("geoindex: add %s to %s: %w", providerID, geoKey, err)
	}
	return nil
}

func (g *RedisGeoIndex) Remove(ctx context.Context, serviceID, providerID string) error {
	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, GeoKey(serviceID), providerID)
		pipe.SRem(ctx, ProvidersKey(serviceID), providerID)
		pipe.ZRem(ctx, SeenKey(serviceID), providerID)
		return nil
	})
	utils.IncGeoIndex("remove", err)
	if err != nil {
		return fmt.Errorf("geoindex: remove %s from %s: %w", providerID, GeoKey(serviceID), err)
	}
	return nil
}

// Search returns live providers within radiusKm, nearest first.
func (g *RedisGeoIndex) Search(ctx context.Context, serviceID string, lon, lat, radiusKm float64) ([]models.NearbyProvider, error) {
	if !validCoordinates(lon, lat) {
		return nil, ErrInvalidCoordinates
	}
	if radiusKm <= 0 {
		return nil, ErrInvalidRadius
	}
	if _, err := g.Prune(ctx, serviceID); err != nil {
		return nil, err
	}

	locations, err := g.client.GeoRadius(ctx, GeoKey(serviceID), lon, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	utils.IncGeoIndex("search", err)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("geoindex: search %s: %w", GeoKey(serviceID), err)
	}

	results := make([]models.NearbyProvider, 0, len(locations))
	for _, loc := range locations {
		results = append(results, models.NearbyProvider{
			ProviderID: loc.Name,
			Lon:        loc.Longitude,
			Lat:        loc.Latitude,
			DistanceKm: loc.Dist,
		})
	}
	return results, nil
}

// Prune drops members of serviceID whose last ping is older than the TTL.
// Returns how many were removed.
func (g *RedisGeoIndex) Prune(ctx context.Context, serviceID string) (int, error) {
	cutoff := g.now().Add(-g.ttl).UnixMilli()
	n, err := pruneScript.Run(ctx, g.client,
		[]string{GeoKey(serviceID), ProvidersKey(serviceID), SeenKey(serviceID)},
		strconv.FormatInt(cutoff, 10),
	).Int()
	utils.IncGeoIndex("prune", err)
	if err != nil {
		return 0, fmt.Errorf("geoindex: prune %s: %w", GeoKey(serviceID), err)
	}
	return n, nil
}

// Keys lists every geo:{serviceId} key currently present.
func (g *RedisGeoIndex) Keys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := g.client.Scan(ctx, cursor, geoKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("geoindex: scan keys failed: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// Positions returns every member of a geo key with its coordinates.
func (g *RedisGeoIndex) Positions(ctx context.Context, key string) ([]models.NearbyProvider, error) {
	members, err := g.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("geoindex: list members of %s: %w", key, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	positions, err := g.client.GeoPos(ctx, key, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("geoindex: positions of %s: %w", key, err)
	}

	out := make([]models.NearbyProvider, 0, len(members))
	for i, pos := range positions {
		// members can expire between ZRANGE and GEOPOS
		if pos == nil {
			continue
		}
		out = append(out, models.NearbyProvider{
			ProviderID: members[i],
			Lon:        pos.Longitude,
			Lat:        pos.Latitude,
		})
	}
	return out, nil
}

// RestoreTTL re-applies the TTL to the service keys if they have lost it.
// It never extends a live expiry: member liveness comes from the seen set, so a
// sweep must not make stale members look fresh. Returns true when a TTL was applied.
func (g *RedisGeoIndex) RestoreTTL(ctx context.Context, serviceID string) (bool, error) {
	restored := false
	for _, key := range []string{GeoKey(serviceID), ProvidersKey(serviceID), SeenKey(serviceID)} {
		ttl, err := g.client.TTL(ctx, key).Result()
		if err != nil {
			return restored, fmt.Errorf("geoindex: ttl of %s: %w", key, err)
		}
		// -1 means the key exists without an expiry; -2 means it is gone.
		if ttl != -1 {
			continue
		}
		if err := g.client.Expire(ctx, key, g.ttl).Err(); err != nil {
			return restored, fmt.Errorf("geoindex: expire %s: %w", key, err)
		}
		restored = true
	}
	return restored, nil
}
