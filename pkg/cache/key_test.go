package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "bare endpoint",
			key:  CacheKey{Endpoint: "/api/v1/teams/"},
			want: "pitchsplits:api/v1/teams",
		},
		{
			name: "query params are sorted",
			key: CacheKey{
				Endpoint: "/api/v1/people/543037/stats",
				QueryParams: url.Values{
					"stats":  []string{"gameLog"},
					"season": []string{"2024"},
					"group":  []string{"pitching"},
				},
			},
			want: "pitchsplits:api/v1/people/543037/stats:group=pitching:season=2024:stats=gameLog",
		},
		{
			name: "repeated values are joined deterministically",
			key: CacheKey{
				Endpoint:    "/api/v1/schedule",
				QueryParams: url.Values{"gameType": []string{"R", "F"}},
			},
			want: "pitchsplits:api/v1/schedule:gameType=F,R",
		},
		{
			name: "host comes before the endpoint",
			key:  CacheKey{Host: "localhost:8080", Endpoint: "/api/v1/teams"},
			want: "pitchsplits:localhost:8080:api/v1/teams",
		},
		{
			name: "empty endpoint",
			key:  CacheKey{},
			want: "pitchsplits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	a, _ := url.Parse("https://statsapi.mlb.com/api/v1/schedule?sportId=1&season=2024&gameType=R,F")
	b, _ := url.Parse("https://statsapi.mlb.com/api/v1/schedule?season=2024&gameType=R,F&sportId=1")

	if KeyFromURL(a).String() != KeyFromURL(b).String() {
		t.Errorf("query order changed the key: %q vs %q", KeyFromURL(a), KeyFromURL(b))
	}

	c, _ := url.Parse("https://statsapi.mlb.com/api/v1/schedule?sportId=1&season=2023&gameType=R,F")
	if KeyFromURL(a).String() == KeyFromURL(c).String() {
		t.Error("different seasons produced the same key")
	}

	d, _ := url.Parse("http://127.0.0.1:8080/api/v1/schedule?sportId=1&season=2024&gameType=R,F")
	if KeyFromURL(a).String() == KeyFromURL(d).String() {
		t.Error("different hosts produced the same key")
	}
	if got, want := KeyFromURL(a).String(), "pitchsplits:statsapi.mlb.com:api/v1/schedule:gameType=R,F:season=2024:sportId=1"; got != want {
		t.Errorf("KeyFromURL = %q, want %q", got, want)
	}
}
