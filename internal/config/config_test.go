package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/cardash/internal/backend"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.json")
}

func TestParseArgs_Defaults(t *testing.T) {
	opts, err := ParseArgs([]string{"-c", missingConfig(t)}, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", opts.Addr)
	assert.Equal(t, backend.DefaultBaseURL, opts.BaseURL)
	assert.Empty(t, opts.CAFile)
	assert.Equal(t, 10*time.Second, opts.RequestTimeout.Std())
	assert.Equal(t, uint(1), opts.FetchAttempts)
	assert.Equal(t, "always", opts.ResetPolicy)
	assert.Equal(t, 30*time.Minute, opts.ViewTTL.Std())
	assert.Equal(t, 2*time.Second, opts.RenderWait.Std())
	assert.Equal(t, "info", opts.LogLevel)
}

func TestParseArgs_Flags(t *testing.T) {
	opts, err := ParseArgs([]string{
		"-c", missingConfig(t),
		"-a", ":9000",
		"-b", "http://localhost:3000",
		"-timeout", "0",
		"-attempts", "3",
		"-reset", "success",
	}, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ":9000", opts.Addr)
	assert.Equal(t, "http://localhost:3000", opts.BaseURL)
	assert.Zero(t, opts.RequestTimeout)
	assert.Equal(t, uint(3), opts.FetchAttempts)
	assert.Equal(t, "success", opts.ResetPolicy)
}

func TestParseArgs_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"addr": ":7000",
		"base_url": "http://file.example",
		"request_timeout": "3s",
		"view_ttl": 60000000000,
		"reset_policy": "success"
	}`), 0600))

	opts, err := ParseArgs(nil, envMap(map[string]string{
		"CONFIG":         path,
		"SERVER_ADDRESS": ":7001",
		"RENDER_WAIT":    "250ms",
		"FETCH_ATTEMPTS": "4",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":7001", opts.Addr, "env wins over file")
	assert.Equal(t, "http://file.example", opts.BaseURL, "file wins over flag default")
	assert.Equal(t, 3*time.Second, opts.RequestTimeout.Std())
	assert.Equal(t, time.Minute, opts.ViewTTL.Std())
	assert.Equal(t, 250*time.Millisecond, opts.RenderWait.Std())
	assert.Equal(t, uint(4), opts.FetchAttempts)
	assert.Equal(t, "success", opts.ResetPolicy)
	assert.Equal(t, path, opts.Config)
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		file string
	}{
		{name: "bad reset policy", args: []string{"-reset", "never"}},
		{name: "zero attempts", args: []string{"-attempts", "0"}},
		{name: "bad env duration", env: map[string]string{"REQUEST_TIMEOUT": "soon"}},
		{name: "bad env attempts", env: map[string]string{"FETCH_ATTEMPTS": "-1"}},
		{name: "unknown flag", args: []string{"-zzz"}},
		{name: "broken file", file: `{"addr":`},
		{name: "bad file duration", file: `{"view_ttl":"forever"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := missingConfig(t)
			if tt.file != "" {
				require.NoError(t, os.WriteFile(cfg, []byte(tt.file), 0600))
			}
			args := append([]string{"-c", cfg}, tt.args...)
			_, err := ParseArgs(args, envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := Duration(1500 * time.Millisecond).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(b))
}
