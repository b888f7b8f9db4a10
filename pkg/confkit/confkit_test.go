package confkit_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"crypto-mcp/pkg/confkit"
)

func TestResolvePath(t *testing.T) {
	t.Setenv("CRYPTO_MCP_TEST_DIR", "etc")

	tests := []struct {
		name     string
		base     string
		file     string
		expected string
	}{
		{"absolute path", "/base/dir", "/absolute/path/market.yaml", "/absolute/path/market.yaml"},
		{"relative path", "/base/dir", "market.yaml", "/base/dir/market.yaml"},
		{"env var", "/base", "${CRYPTO_MCP_TEST_DIR}/market.yaml", "/base/etc/market.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, confkit.ResolvePath(tt.base, tt.file))
		})
	}
}

func TestBaseDir(t *testing.T) {
	require.Equal(t, "/etc/crypto-mcp", confkit.BaseDir("/etc/crypto-mcp/crypto-mcp.yaml"))
	require.Equal(t, "/", confkit.BaseDir("/crypto-mcp.yaml"))
	require.Equal(t, "etc", confkit.BaseDir("etc/crypto-mcp.yaml"))
}

type marketStub struct {
	Default string
}

func TestSectionHydrate(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		section := &confkit.Section[marketStub]{}
		err := section.Hydrate("/base", func(string) (*marketStub, error) {
			t.Fatal("loader should not be called for empty file")
			return nil, nil
		})
		require.NoError(t, err)
		require.False(t, section.Loaded())
	})

	t.Run("loaded", func(t *testing.T) {
		section := &confkit.Section[marketStub]{File: "market.yaml"}
		err := section.Hydrate("/base", func(path string) (*marketStub, error) {
			require.Equal(t, "/base/market.yaml", path)
			return &marketStub{Default: "binance"}, nil
		})
		require.NoError(t, err)
		require.True(t, section.Loaded())
		require.Equal(t, "binance", section.Value.Default)
		require.Equal(t, "/base/market.yaml", section.File)
	})

	t.Run("loader error", func(t *testing.T) {
		boom := errors.New("boom")
		section := &confkit.Section[marketStub]{File: "market.yaml"}
		err := section.Hydrate("/base", func(string) (*marketStub, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
		require.Equal(t, "market.yaml", section.File)
	})
}

func TestLoadFile(t *testing.T) {
	t.Setenv("CRYPTO_MCP_TEST_NAME", "from-env")
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Default: ${CRYPTO_MCP_TEST_NAME}\n"), 0o600))

	cfg, err := confkit.LoadFile[marketStub](path, true)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Default)

	_, err = confkit.LoadFile[marketStub](filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.Error(t, err)
}

func TestProjectPath(t *testing.T) {
	root, err := confkit.ProjectRoot()
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "go.mod"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "etc", "market.yaml"), confkit.MustProjectPath("etc/market.yaml"))
}
