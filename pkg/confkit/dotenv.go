package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// Environment switches understood by LoadDotenvOnce.
const (
	EnvNoDotenv       = "CRYPTO_MCP_NO_DOTENV"
	EnvDotenvOverload = "CRYPTO_MCP_DOTENV_OVERLOAD"
	EnvFile           = "CRYPTO_MCP_ENV_FILE"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads .env files once per process. CRYPTO_MCP_ENV_FILE
// names an explicit file; otherwise every .env between this package and the
// module root is loaded, nearest first. Existing variables win unless
// CRYPTO_MCP_DOTENV_OVERLOAD=1.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv(EnvNoDotenv) == "1" {
		return
	}
	overload := os.Getenv(EnvDotenvOverload) == "1"
	load := func(path string) {
		if !fileExists(path) {
			return
		}
		if overload {
			_ = godotenv.Overload(path)
		} else {
			_ = godotenv.Load(path)
		}
	}

	if envFile := os.Getenv(EnvFile); envFile != "" {
		load(envFile)
		return
	}
	if _, ok := walkUp(func(dir string) bool {
		load(filepath.Join(dir, ".env"))
		return false
	}); ok {
		return
	}
	load(".env")
}
