package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	HostName string
	Port     int
}

type StreamConfig struct {
	ChunkSize int
}

type LogConfig struct {
	Level string
}

type Config struct {
	Server ServerConfig
	Stream StreamConfig
	Log    LogConfig
}

// LoadConfig reads an optional config.toml from searchPath on top of the
// built-in defaults. Environment variables prefixed with STREAMFEED override
// file values (e.g. STREAMFEED_SERVER_PORT). A missing config file is not an
// error; the returned Config always carries usable values.
func LoadConfig(searchPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(searchPath)

	v.SetDefault("server.hostname", "localhost")
	v.SetDefault("server.port", 9999)
	v.SetDefault("stream.chunksize", 4096)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("STREAMFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			v.Unmarshal(&cfg)
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}
