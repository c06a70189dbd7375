package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"kaychat/domain"
	"kaychat/errors"
	"kaychat/internal"
	"kaychat/moderation"
	"kaychat/repositories"
	"kaychat/runtime"
	"kaychat/ui"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	commandQuit  = "/quit"
	commandUsers = "/users"
)

var errQuit = fmt.Errorf("quit requested")

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run loads the configuration, then keeps one chat connection alive,
// reconnecting up to RECONNECT_ATTEMPTS times when the server drops it.
func run() (int, error) {
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	identity, err := domain.NewIdentity(config.Username)
	if err != nil {
		return exitConfig, fmt.Errorf("login: %w", err)
	}

	replacement, _ := internal.CharacterRune(config.CharReplacement)
	moderator, err := moderation.NewModerator(moderation.ParseWords(config.CensoredWords), replacement)
	if err != nil {
		return exitConfig, fmt.Errorf("moderation: %w", err)
	}

	var transcript repositories.ITranscriptRepository
	if config.TranscriptPath != "" {
		db, err := badger.Open(badger.DefaultOptions(config.TranscriptPath).WithLoggingLevel(badger.WARNING))
		if err != nil {
			return exitRuntime, fmt.Errorf("transcript opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing transcript...")
			_ = db.Close()
		}()
		transcript = repositories.NewTranscriptRepository(db, log, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines := readLines(os.Stdin)
	terminal := ui.NewTerminal(os.Stdout, moderator, config.Colours)
	connectionConfig := runtime.ConnectionConfig{
		URL:              config.ServerURL,
		Identity:         identity,
		OutboundBuffer:   config.OutboundBuffer,
		InboxSize:        config.InboxSize,
		WriteTimeout:     config.WriteTimeout,
		HandshakeTimeout: config.HandshakeTimeout,
		RestartInterval:  config.RestartInterval,
		StatsInterval:    config.StatsInterval,
		Transcript:       transcript,
	}

	for attempt := 0; ; attempt++ {
		err = chat(ctx, log, connectionConfig, terminal, lines)
		switch {
		case err == errQuit || ctx.Err() != nil:
			return exitOK, nil
		case attempt >= config.ReconnectAttempts:
			return exitRuntime, err
		}
		log.Warn("Reconnecting", "attempt", attempt+1, "of", config.ReconnectAttempts, "error", err)
		select {
		case <-ctx.Done():
			return exitOK, nil
		case <-time.After(config.ReconnectInterval):
		}
	}
}

// chat runs one connection until it drops, the user quits or ctx ends.
func chat(ctx context.Context, log *slog.Logger, config runtime.ConnectionConfig, terminal *ui.Terminal, lines <-chan string) error {
	conn, err := runtime.Connect(ctx, log, config)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		conn.Run(ctx)
		close(done)
	}()
	defer func() {
		_ = conn.Close()
		<-done
	}()

	terminal.Render(conn.Session.Snapshot())
	updates := conn.Session.Updates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snapshot, ok := <-updates:
			if !ok {
				return errors.ErrSessionClosed
			}
			terminal.Update(snapshot)
		case line, ok := <-lines:
			if !ok {
				return errQuit
			}
			switch strings.TrimSpace(line) {
			case commandQuit:
				return errQuit
			case commandUsers:
				terminal.Render(conn.Session.Snapshot())
				continue
			}
			if err := conn.Session.Submit(ctx, line); err != nil {
				log.Warn("Message not sent", "error", err)
			}
		}
	}
}

// readLines feeds stdin lines for the whole process lifetime, so a
// reconnect does not lose the reader.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
