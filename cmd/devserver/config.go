package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr            string        `envconfig:"DEVSERVER_ADDR" default:"127.0.0.1:8080"`
	Path            string        `envconfig:"DEVSERVER_PATH" default:"/ws"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `envconfig:"DEVSERVER_SHUTDOWN_TIMEOUT" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
