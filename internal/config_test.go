package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("CHAT_USERNAME", "alice")

	config, err := LoadConfig()

	req.NoError(err)
	req.Equal("alice", config.Username)
	req.Equal("ws://127.0.0.1:8080/ws", config.ServerURL)
	req.Equal(64, config.OutboundBuffer)
	req.Equal(10*time.Second, config.WriteTimeout)
	req.Equal(0, config.ReconnectAttempts)
	req.Equal(2*time.Second, config.ReconnectInterval)
	req.True(config.Colours)
}

func TestLoadConfig_Requires_Username(t *testing.T) {
	req := require.New(t)
	t.Setenv("CHAT_USERNAME", "")

	_, err := LoadConfig()

	req.Error(err)
}

func TestLoadConfig_Rejects_Bad_Values(t *testing.T) {
	req := require.New(t)
	t.Setenv("CHAT_USERNAME", "alice")
	t.Setenv("OUTBOUND_BUFFER_SIZE", "0")

	_, err := LoadConfig()
	req.Error(err)

	t.Setenv("OUTBOUND_BUFFER_SIZE", "8")
	t.Setenv("CHARACTER_REPLACEMENT", "**")
	_, err = LoadConfig()
	req.ErrorContains(err, "CHARACTER_REPLACEMENT")
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	_, err = CharacterRune("")
	req.Error(err)
}
