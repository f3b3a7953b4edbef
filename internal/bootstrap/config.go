package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort          string  `mapstructure:"SERVER_PORT"`
	RedisUrl            string  `mapstructure:"REDIS_URL"`
	MongoUri            string  `mapstructure:"MONGO_URI"`
	IsLocalCors         bool    `mapstructure:"LOCAL_CORS"`
	EngineBinary        string  `mapstructure:"ENGINE_BINARY"`
	EngineArgs          string  `mapstructure:"ENGINE_ARGS"`
	EngineMaxThinkSec   float64 `mapstructure:"ENGINE_MAX_THINK_SEC"`
	EngineRestartLimit  int     `mapstructure:"ENGINE_RESTART_LIMIT"`
	DisconnectGraceSec  int     `mapstructure:"DISCONNECT_GRACE_SEC"`
	PageLimitArchive    int     `mapstructure:"PAGE_LIMIT_ARCHIVE"`
	AutoDetectDeadGroup bool    `mapstructure:"AUTO_DETECT_DEAD_GROUPS"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.EngineBinary == "" {
		cfg.EngineBinary = "./katago"
	}
	if cfg.EngineMaxThinkSec <= 0 {
		cfg.EngineMaxThinkSec = 8
	}
	if cfg.EngineRestartLimit <= 0 {
		cfg.EngineRestartLimit = 2
	}
	if cfg.DisconnectGraceSec <= 0 {
		cfg.DisconnectGraceSec = 60
	}
	if cfg.PageLimitArchive <= 0 {
		cfg.PageLimitArchive = 20
	}
}
