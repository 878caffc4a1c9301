package core

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
)

// EnvMap holds environment variable overrides a workflow document or step
// declares under its `env:` key.
type EnvMap map[string]string

// NewEnvFromFile reads a .env file rooted at dir, returning an empty map
// (not an error) when no such file exists.
func NewEnvFromFile(dir string) (EnvMap, error) {
	envPath := filepath.Join(dir, ".env")
	envMap, err := godotenv.Read(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(EnvMap), nil
		}
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	return EnvMap(envMap), nil
}

// Merge returns a new EnvMap with other's keys overriding e's.
func (e EnvMap) Merge(other EnvMap) (EnvMap, error) {
	result := make(EnvMap, len(e))
	for k, v := range e {
		result[k] = v
	}
	if err := mergo.Merge(&result, other, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge env: %w", err)
	}
	return result, nil
}
