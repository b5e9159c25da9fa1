package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		realIP     string
		trustProxy bool
		want       string
	}{
		{"remote only", "10.0.0.1:5555", "", "", false, "10.0.0.1"},
		{"xff ignored when untrusted", "10.0.0.1:5555", "1.2.3.4", "", false, "10.0.0.1"},
		{"xff left-most when trusted", "10.0.0.1:5555", " 1.2.3.4 , 5.6.7.8", "", true, "1.2.3.4"},
		{"real ip fallback", "10.0.0.1:5555", "", "9.9.9.9", true, "9.9.9.9"},
		{"ipv6 remote", "[::1]:8080", "", "", false, "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, ClientIP(r, tt.trustProxy))
		})
	}
}

func TestPrefixSet(t *testing.T) {
	set, invalid := NewPrefixSet([]string{"10.0.0.0/8", "192.168.1.7", "::1", "not-an-ip", ""})

	assert.Equal(t, []string{"not-an-ip"}, invalid)
	assert.False(t, set.Empty())
	assert.True(t, set.Contains("10.20.30.40"))
	assert.True(t, set.Contains("192.168.1.7"))
	assert.False(t, set.Contains("192.168.1.8"))
	assert.True(t, set.Contains("::1"))
	assert.True(t, set.Contains("::ffff:10.1.1.1"))
	assert.False(t, set.Contains("garbage"))

	empty, _ := NewPrefixSet(nil)
	assert.True(t, empty.Empty())
}
