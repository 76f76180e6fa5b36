package mcpserver

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		ip      string
		blocked bool
	}{
		{"127.0.0.1", true},   // loopback
		{"10.0.0.1", true},    // private
		{"192.168.1.1", true}, // private
		{"169.254.1.1", true}, // link-local
		{"::1", true},         // IPv6 loopback
		{"0.0.0.0", true},     // unspecified
		{"fd00::1", true},     // IPv6 ULA
		{"8.8.8.8", false},
		{"1.1.1.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			require.NotNil(t, ip, "failed to parse IP: %s", tt.ip)
			assert.Equal(t, tt.blocked, isBlockedIP(ip))
		})
	}
}

func TestPublicAddrs_Loopback(t *testing.T) {
	_, err := publicAddrs(context.Background(), "127.0.0.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked request")
}

func TestSafeHTTPClient_RefusesLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("types: []"))
	}))
	defer srv.Close()

	client := newSafeHTTPClient()
	assert.NotZero(t, client.Timeout)
	_, err := client.Get(srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked request")
}
