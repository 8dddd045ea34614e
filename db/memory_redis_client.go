package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"path"
	"sort"
	"strings"
	"sync"
)

const earthRadiusKm = 6371.0

// GeoLoc represents a geolocation with latitude and longitude.
type GeoLoc struct {
	Latitude  float64
	Longitude float64
}

// MemoryRedisClient is an in-process RedisClient used by tests and by
// local runs configured with the "memory" redis address.
type MemoryRedisClient struct {
	mu      sync.RWMutex
	data    map[string]string
	geoData map[string]map[string]GeoLoc
	zsets   map[string]map[string]float64
}

func NewMemoryRedisClient() *MemoryRedisClient {
	return &MemoryRedisClient{
		data:    make(map[string]string),
		geoData: make(map[string]map[string]GeoLoc),
		zsets:   make(map[string]map[string]float64),
	}
}

func (m *MemoryRedisClient) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryRedisClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, exists := m.data[key]
	if !exists {
		return "", ErrNil
	}
	return value, nil
}

func (m *MemoryRedisClient) SetNX(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *MemoryRedisClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		delete(m.geoData, k)
		delete(m.zsets, k)
	}
	return nil
}

// Keys supports the glob syntax of path.Match, which covers the patterns the DAOs use.
func (m *MemoryRedisClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryRedisClient) AddLocationWithJSON(ctx context.Context, geoKey, memberKey string, lat, lon float64, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.geoData[geoKey]; !exists {
		m.geoData[geoKey] = make(map[string]GeoLoc)
	}
	m.geoData[geoKey][memberKey] = GeoLoc{Latitude: lat, Longitude: lon}
	m.data[memberKey] = string(jsonData)
	return nil
}

// GetLocationsWithinRadius returns member JSON ordered by distance, nearest first.
func (m *MemoryRedisClient) GetLocationsWithinRadius(ctx context.Context, key string, lat, lon, radiusKm float64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type hit struct {
		member string
		dist   float64
	}
	var hits []hit
	for member, loc := range m.geoData[key] {
		d := haversineKm(lat, lon, loc.Latitude, loc.Longitude)
		if d <= radiusKm {
			hits = append(hits, hit{member, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	var results []string
	for _, h := range hits {
		data, exists := m.data[h.member]
		if !exists {
			log.Printf("[MemoryRedisClient] Skipping member %s without data", h.member)
			continue
		}
		results = append(results, data)
	}
	return results, nil
}

func (m *MemoryRedisClient) RemoveLocation(ctx context.Context, geoKey, memberKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.geoData[geoKey], memberKey)
	delete(m.data, memberKey)
	return nil
}

func (m *MemoryRedisClient) ZAdd(ctx context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.zsets[key]; !exists {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] = score
	return nil
}

func (m *MemoryRedisClient) ZRem(ctx context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.zsets[key], member)
	return nil
}

func (m *MemoryRedisClient) ZRevRange(ctx context.Context, key string, limit int64) ([]string, error) {
	m.mu.RLock()
	scores := make(map[string]float64, len(m.zsets[key]))
	members := make([]string, 0, len(m.zsets[key]))
	for member, score := range m.zsets[key] {
		scores[member] = score
		members = append(members, member)
	}
	m.mu.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		si, sj := scores[members[i]], scores[members[j]]
		if si != sj {
			return si > sj
		}
		return members[i] > members[j]
	})
	return truncate(members, limit), nil
}

func (m *MemoryRedisClient) ZRangeByLexPrefix(ctx context.Context, key, prefix string, limit int64) ([]string, error) {
	m.mu.RLock()
	var members []string
	for member := range m.zsets[key] {
		if strings.HasPrefix(member, prefix) {
			members = append(members, member)
		}
	}
	m.mu.RUnlock()

	sort.Strings(members)
	return truncate(members, limit), nil
}

func (m *MemoryRedisClient) Ping(ctx context.Context) error {
	return nil
}

func truncate(ss []string, limit int64) []string {
	if limit > 0 && int64(len(ss)) > limit {
		return ss[:limit]
	}
	return ss
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
