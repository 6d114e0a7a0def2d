package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	body := []byte(`{"teams":[]}`)

	t.Run("future expires header wins", func(t *testing.T) {
		expires := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
		h := http.Header{"Expires": []string{expires.Format(http.TimeFormat)}}

		entry := NewEntry(body, h, time.Minute)
		if !entry.Expires.Equal(expires) {
			t.Errorf("Expires = %v, want %v", entry.Expires, expires)
		}
		if string(entry.Data) != string(body) {
			t.Errorf("Data = %s, want %s", entry.Data, body)
		}
		if entry.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
		}
	})

	t.Run("missing header uses fallback", func(t *testing.T) {
		entry := NewEntry(body, http.Header{}, time.Minute)
		if ttl := entry.TTL(); ttl < 55*time.Second || ttl > time.Minute {
			t.Errorf("TTL() = %v, want about 1m", ttl)
		}
	})

	t.Run("past expires header uses fallback", func(t *testing.T) {
		h := http.Header{"Expires": []string{time.Now().Add(-time.Hour).Format(http.TimeFormat)}}
		entry := NewEntry(body, h, time.Minute)
		if entry.IsExpired() {
			t.Error("entry built from a stale Expires header should use the fallback TTL")
		}
	})

	t.Run("unparseable header and zero fallback use DefaultTTL", func(t *testing.T) {
		h := http.Header{"Expires": []string{"0"}}
		entry := NewEntry(body, h, 0)
		if ttl := entry.TTL(); ttl < DefaultTTL-5*time.Second || ttl > DefaultTTL {
			t.Errorf("TTL() = %v, want about %v", ttl, DefaultTTL)
		}
	})
}
