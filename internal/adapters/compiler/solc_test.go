package compiler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoScript = "#!/bin/sh\ncat\n"

func TestSolcRuntime_DownloadsOnce(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script compiler stub needs a unix shell")
	}

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/linux-amd64/solc-linux-amd64-v0.8.26+commit.8a97fa7a", r.URL.Path)
		_, _ = w.Write([]byte(echoScript))
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	location := srv.URL + "/linux-amd64/solc-linux-amd64-v0.8.26+commit.8a97fa7a"

	rt := NewSolcRuntime(cacheDir, slog.New(slog.DiscardHandler))
	require.NoError(t, rt.Load(context.Background(), location))

	info, err := os.Stat(filepath.Join(cacheDir, "solc-linux-amd64-v0.8.26+commit.8a97fa7a"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0100, "downloaded compiler must be executable")

	out, err := rt.Compile(context.Background(), []byte(`{"language":"Solidity"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"language":"Solidity"}`, string(out))

	// a second runtime over the same cache reuses the binary
	again := NewSolcRuntime(cacheDir, slog.New(slog.DiscardHandler))
	require.NoError(t, again.Load(context.Background(), location))
	assert.Equal(t, int32(1), hits.Load())
}

func TestSolcRuntime_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	rt := NewSolcRuntime(cacheDir, slog.New(slog.DiscardHandler))
	err := rt.Load(context.Background(), srv.URL+"/solc-missing")
	assert.ErrorContains(t, err, "status 404")

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed downloads must not leave files behind")
}

func TestSolcRuntime_LocalBinary(t *testing.T) {
	rt := NewSolcRuntime(t.TempDir(), slog.New(slog.DiscardHandler))

	err := rt.Load(context.Background(), filepath.Join(t.TempDir(), "solc"))
	assert.ErrorContains(t, err, "solc binary not found")

	err = rt.Load(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "is a directory")

	_, err = rt.Compile(context.Background(), []byte("{}"))
	assert.ErrorContains(t, err, "compiler not loaded")
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantErrs  []string
		wantCode  string
		wantError bool
	}{
		{
			name: "contracts",
			raw: `{"contracts":{"Counter.sol":{"Counter":{"abi":[],"evm":{"bytecode":{"object":"6080"}}}}},
				"errors":[{"severity":"warning","formattedMessage":"Warning: unused\n"}]}`,
			wantCode: "6080",
		},
		{
			name: "errors only keep error severity",
			raw: `{"errors":[
				{"severity":"warning","formattedMessage":"Warning: unused"},
				{"severity":"error","formattedMessage":"ParserError: Expected ';'\n"},
				{"severity":"error","message":"DeclarationError: Undeclared identifier."}]}`,
			wantErrs: []string{"ParserError: Expected ';'", "DeclarationError: Undeclared identifier."},
		},
		{
			name:      "garbage",
			raw:       `not json`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseOutput([]byte(tt.raw))
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.wantErrs != nil {
				assert.True(t, result.Failed())
				assert.Equal(t, tt.wantErrs, result.Errors)
				return
			}
			assert.False(t, result.Failed())
			c, ok := result.Contract("Counter")
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, c.Bytecode)
		})
	}
}
