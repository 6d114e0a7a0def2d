// Package cache provides an optional Redis-backed cache for stats API
// responses.
//
// A harvest run normally re-fetches everything. When a Redis address is
// configured, successful JSON bodies are stored under a key derived from the
// request URL and reused until they expire, which makes repeated local runs
// against the same seasons much cheaper.
//
// # Expiry
//
// The entry TTL comes from the response Expires header when it lies in the
// future, otherwise from the fallback TTL given to NewEntry.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.KeyFromURL(u)
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch, then
//		_ = manager.Set(ctx, key, cache.NewEntry(body, resp.Header, 10*time.Minute))
//	}
//
// # Metrics
//
//   - pitchsplits_cache_hits_total
//   - pitchsplits_cache_misses_total
//   - pitchsplits_cache_size_bytes
//   - pitchsplits_cache_errors_total{operation}
package cache
