package config

import "github.com/joho/godotenv"

// LoadDotEnv reads a .env file into the environment.
// It does NOT override existing env vars (env takes precedence).
// A missing file is returned as an error the caller can ignore.
func LoadDotEnv(path string) error {
	return godotenv.Load(path)
}
