package config

import (
	"crypto-mcp/pkg/confkit"
)

const defaultRelPath = "etc/crypto-mcp.yaml"

// DefaultPath is the main config file inside the repository, or the
// working-directory relative path when no project root can be found.
func DefaultPath() string {
	if p, err := confkit.ProjectPath(defaultRelPath); err == nil {
		return p
	}
	return defaultRelPath
}
