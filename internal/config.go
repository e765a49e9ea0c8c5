package internal

import (
	"chat-session/infrastructure/socket"
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

// Config is the environment of the chat client.
type Config struct {
	ServerURL        string        `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws" validate:"required,url"`
	Identity         string        `env:"CHAT_IDENTITY,required=true" validate:"required,excludesall=-:"`
	AvatarPath       string        `env:"CHAT_AVATAR_PATH"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	BufferSize       int           `env:"BUFFER_SIZE,default=256" validate:"gt=0"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	EchoSuppression  bool          `env:"ECHO_SUPPRESSION,default=false"`
	Colours          bool          `env:"CHAT_COLOURS,default=true"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT,default=10s" validate:"gt=0"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT,default=5s" validate:"gt=0"`
	ReadTimeout      time.Duration `env:"READ_TIMEOUT,default=60s" validate:"gt=0"`
	PingInterval     time.Duration `env:"PING_INTERVAL,default=20s" validate:"gt=0,ltfield=ReadTimeout"`
}

// LoadConfig reads the process environment and validates it.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, err
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) SocketOptions() socket.Options {
	return socket.Options{
		HandshakeTimeout: c.HandshakeTimeout,
		WriteTimeout:     c.WriteTimeout,
		ReadTimeout:      c.ReadTimeout,
		PingInterval:     c.PingInterval,
	}
}
