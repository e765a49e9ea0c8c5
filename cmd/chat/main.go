package main

import (
	"chat-session/client"
	"chat-session/domain"
	"chat-session/internal"
	"chat-session/sink"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the chat client.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	avatar, err := domain.AvatarFromFile(config.AvatarPath)
	if err != nil {
		return exitConfig, fmt.Errorf("avatar error: %w", err)
	}

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Session over the relay connection
	terminal := sink.NewTerminal(os.Stdout, config.Identity, config.Colours)
	chat, err := client.Connect(ctx, log, client.Config{
		ServerURL:       config.ServerURL,
		Identity:        config.Identity,
		Avatar:          avatar,
		BufferSize:      config.BufferSize,
		RestartInterval: config.RestartInterval,
		EchoSuppression: config.EchoSuppression,
		Socket:          config.SocketOptions(),
	}, terminal)
	if err != nil {
		return exitRuntime, err
	}
	defer chat.Close()

	if err = chat.Start(ctx); err != nil {
		return exitRuntime, err
	}
	if !avatar.Present() {
		_ = terminal.Printf("No avatar yet, use /avatar <path> to appear online\n")
	}

	// 4. Read commands until the user quits or the relay goes away
	prompt := newPrompt(chat, terminal)
	lines := readLines(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down gracefully...")
			return exitOK, nil
		case <-chat.Done():
			return exitRuntime, fmt.Errorf("connection to %s lost", config.ServerURL)
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if quit := prompt.Handle(ctx, line); quit {
				return exitOK, nil
			}
		}
	}
}
