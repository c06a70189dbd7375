package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config defines the client-side environment variables.
type Config struct {
	ServerURL         string        `env:"CHAT_SERVER_URL,default=ws://127.0.0.1:8080/ws" validate:"required,url"`
	Username          string        `env:"CHAT_USERNAME,required=true" validate:"required,min=1,max=64"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	OutboundBuffer    int           `env:"OUTBOUND_BUFFER_SIZE,default=64" validate:"min=1"`
	InboxSize         int           `env:"INBOX_SIZE,default=256" validate:"min=1"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	HandshakeTimeout  time.Duration `env:"HANDSHAKE_TIMEOUT,default=10s" validate:"gt=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	ReconnectAttempts int           `env:"RECONNECT_ATTEMPTS,default=0" validate:"min=0"`
	ReconnectInterval time.Duration `env:"RECONNECT_INTERVAL,default=2s" validate:"gt=0"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL,default=0s" validate:"gte=0"`
	TranscriptPath    string        `env:"TRANSCRIPT_PATH"`
	CensoredWords     string        `env:"CENSORED_WORDS"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*"`
	Colours           bool          `env:"CHAT_COLOURS,default=true"`
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	if _, err := CharacterRune(config.CharReplacement); err != nil {
		return Config{}, err
	}
	return config, nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
