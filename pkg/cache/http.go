package cache

import (
	"net/http"
	"time"
)

// DefaultTTL is the fallback TTL when neither an Expires header nor a
// caller-supplied TTL is available.
const DefaultTTL = 10 * time.Minute

// NewEntry builds a cache entry for a successful JSON body. The expiry is
// taken from the Expires header when present and in the future, otherwise
// now + fallback (DefaultTTL when fallback <= 0).
func NewEntry(body []byte, header http.Header, fallback time.Duration) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		Data:       body,
		StatusCode: http.StatusOK,
		Expires:    parseExpires(header, now, fallback),
		CachedAt:   now,
	}
}

func parseExpires(header http.Header, now time.Time, fallback time.Duration) time.Time {
	if fallback <= 0 {
		fallback = DefaultTTL
	}

	expiresStr := header.Get("Expires")
	if expiresStr == "" {
		return now.Add(fallback)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil || !expires.After(now) {
		return now.Add(fallback)
	}

	return expires
}
