package config

type Config interface {
	EnvConfig
	GatewayConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Gateway
}

func New() Config {
	return mainConfig{}
}
