package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCommand_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	t.Setenv("SERVER_URL", server.URL)

	err := newApp().Run([]string{"cobuy", "server", "health"})
	require.NoError(t, err)
}

func TestHealthCommand_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := newApp().Run([]string{"cobuy", "--server-url", server.URL, "server", "health"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestHealthCommand_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := newApp().Run([]string{"cobuy", "--server-url", url, "server", "health"})
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	err := newApp().Run([]string{"cobuy", "server", "version"})
	require.NoError(t, err)
}

func TestRankingCommand_Text(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ranking", r.URL.Path)
		assert.Equal(t, "text", r.URL.Query().Get("format"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Write([]byte("No signals recorded yet."))
	}))
	defer server.Close()

	err := newApp().Run([]string{"cobuy", "--server-url", server.URL, "ranking", "--top", "3"})
	require.NoError(t, err)
}

func TestListSignalsCommand_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to list signals"}`))
	}))
	defer server.Close()

	err := newApp().Run([]string{"cobuy", "--server-url", server.URL, "signals", "list"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list signals")
}
