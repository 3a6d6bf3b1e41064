package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/dak-console/config"
)

func TestParseFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := parseFlags(nil)
		require.NoError(t, err)
		assert.Equal(t, ".env", opts.envFile)
		assert.Empty(t, opts.addr)
	})

	t.Run("overrides", func(t *testing.T) {
		opts, err := parseFlags([]string{"--env-file", "prod.env", "--addr=:9090"})
		require.NoError(t, err)
		assert.Equal(t, "prod.env", opts.envFile)
		assert.Equal(t, ":9090", opts.addr)
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := parseFlags([]string{"--verbose"})
		assert.Error(t, err)
	})
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("DAK_API_BASE_URL", "not a url")
	err := run([]string{"--env-file", "testdata/does-not-exist.env"})
	assert.Error(t, err)
}

func TestNewServer_ShutdownReleasesStreams(t *testing.T) {
	stopped := make(chan struct{})
	entered := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		select {
		case <-stopped:
		case <-r.Context().Done():
		}
	})

	srv := newServer("", config.ServerConfig{}, handler, func() { close(stopped) })
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/notifications/stream")
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
