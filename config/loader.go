package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix scopes which environment variables become overrides.
const envPrefix = "FETCHKIT_"

// Load reads YAML configuration from path into cfg. A .env file next to the
// config file is loaded first, then FETCHKIT_* environment variables are
// applied on top of the file's values. A missing config file is not an
// error: the environment alone can carry the whole configuration.
func Load(path string, cfg any) error {
	if path != "" {
		envFile := filepath.Join(filepath.Dir(path), ".env")
		if exists(envFile) {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("config: load env file %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	if path != "" && exists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	bindEnvOverrides(v)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return nil
}

// bindEnvOverrides sets every FETCHKIT_* variable on v. An underscore name
// maps to nested keys ambiguously (CLIENT_BASE_URL could be client.base.url
// or client.base_url), so every split variant is set; the ones that match
// struct fields win during unmarshal.
func bindEnvOverrides(v *viper.Viper) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, envPrefix))
		for _, variant := range keyVariants(name) {
			v.Set(variant, value)
		}
	}
}

// keyVariants expands an underscore-joined name into the possible nested
// viper keys: each prefix of the parts becomes a dotted path, the rest
// stays underscore-joined.
//
//	client_base_url -> [client_base_url, client.base_url, client.base.url]
func keyVariants(name string) []string {
	parts := strings.Split(name, "_")
	variants := make([]string, 0, len(parts))
	for i := 0; i < len(parts); i++ {
		variants = append(variants,
			strings.Join(parts[:i+1], ".")+joinTail(parts[i+1:]))
	}
	return variants
}

func joinTail(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return "_" + strings.Join(parts, "_")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
