package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig  = "FILEBROWSER_GO_CONFIG"
	EnvServer  = "FILEBROWSER_GO_SERVER"
	EnvStorage = "FILEBROWSER_GO_STORAGE"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // FILEBROWSER_GO_CONFIG: override config file path
	ServerURL  string // FILEBROWSER_GO_SERVER: server base URL
	Storage    string // FILEBROWSER_GO_STORAGE: storage backend
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; Resolve applies the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		ServerURL:  os.Getenv(EnvServer),
		Storage:    os.Getenv(EnvStorage),
	}
}
