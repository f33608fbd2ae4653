package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// InitConfig creates a sample configuration file at the default location.
//
// Returns the path of the created file. Fails if a file already exists
// unless force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath creates a sample configuration file at the given path.
//
// The generated config carries all defaults plus a freshly generated JWT
// secret so token authentication works out of the box. Production
// deployments should override the secret through CATALOGD_API_SECRET.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()

	secret, err := generateDevSecret()
	if err != nil {
		return err
	}
	cfg.API.JWT.Secret = secret

	return SaveConfig(cfg, path)
}

// generateDevSecret produces a 64-character hex string (32 bytes of entropy)
// suitable as an HMAC signing key.
func generateDevSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
