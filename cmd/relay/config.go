package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr           string        `envconfig:"RELAY_ADDR" default:"localhost:8080"`
	BadgerFilepath string        `envconfig:"BADGER_FILEPATH" default:"./data/relay"`
	LimitMessages  *int          `envconfig:"LIMIT_MESSAGES"`
	OutboxSize     int           `envconfig:"OUTBOX_SIZE" default:"64"`
	WriteTimeout   time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT" default:"60s"`
	PingInterval   time.Duration `envconfig:"PING_INTERVAL" default:"20s"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"INFO"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
