package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "pitchsplits"

// CacheKey identifies a cached stats API response.
type CacheKey struct {
	// Host is the upstream host (e.g., "statsapi.mlb.com")
	Host string

	// Endpoint is the request path (e.g., "/api/v1/people/543037/stats")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"season": "2024"})
	QueryParams url.Values
}

// KeyFromURL builds the cache key for a request URL.
func KeyFromURL(u *url.URL) CacheKey {
	return CacheKey{
		Host:        u.Host,
		Endpoint:    u.Path,
		QueryParams: u.Query(),
	}
}

// String generates a deterministic cache key string.
// Format: pitchsplits:host:endpoint:query1=val1:query2=val2
//
// Example:
//
//	pitchsplits:statsapi.mlb.com:api/v1/people/543037/stats:group=pitching:season=2024:stats=gameLog
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}
	if k.Host != "" {
		parts = append(parts, k.Host)
	}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			values := append([]string(nil), k.QueryParams[key]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
