package config

type Config interface {
	EnvConfig
	AuthConfig
	GraphConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetAllowedOrigin() string
}

type mainConfig struct {
	EnvVars
	Auth
	Graph
	Storage
}

func New() Config {
	return mainConfig{}
}
