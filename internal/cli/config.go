package cli

import "github.com/ridgedb/ridge/internal/config"

func loadConfigFrom(path string) (config.Config, error) {
	return config.Load(path)
}
