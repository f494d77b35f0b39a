package atproto

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"
)

// fakeJWT builds an unsigned JWT with the given expiry, enough for the
// unverified exp inspection ExpiresSoon performs.
func fakeJWT(t *testing.T, exp time.Time) string {
	t.Helper()

	enc := func(v any) string {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return base64.RawURLEncoding.EncodeToString(data)
	}

	header := enc(map[string]string{"alg": "none", "typ": "JWT"})
	claims := enc(map[string]any{"exp": exp.Unix(), "sub": "did:plc:test"})
	return header + "." + claims + "."
}

func TestSession_ExpiresSoon(t *testing.T) {
	tests := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"expired", time.Now().Add(-time.Hour), true},
		{"within leeway", time.Now().Add(time.Minute), true},
		{"fresh", time.Now().Add(2 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{AccessToken: fakeJWT(t, tt.exp)}
			if got := s.ExpiresSoon(); got != tt.want {
				t.Errorf("ExpiresSoon() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_ExpiresSoon_Unparseable(t *testing.T) {
	s := &Session{AccessToken: "not-a-jwt"}
	if !s.ExpiresSoon() {
		t.Error("unparseable access token should be treated as stale")
	}
}
