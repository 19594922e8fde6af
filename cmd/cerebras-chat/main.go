// Package main is a demonstration CLI for the cerebras client library. It
// reads a prompt from the arguments or stdin and prints the model's answer,
// streamed by default.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	cerebras "github.com/cerebras-community/cerebras-go"
	"github.com/cerebras-community/cerebras-go/internal/config"
	"github.com/cerebras-community/cerebras-go/internal/security"
	"github.com/cerebras-community/cerebras-go/internal/ui"
)

func main() {
	// .env is a convenience for local development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.GetConfig()
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	if cfg.Logging.OutputPath != "" {
		ui.PrintInfo("logging to " + cfg.Logging.OutputPath)
	}

	prompt, err := readPrompt(os.Args[1:])
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(2)
	}

	ui.PrintBanner(cfg.Chat.Model)

	client, err := cerebras.New(cfg.CredentialSource(),
		cerebras.WithModel(cfg.Chat.Model),
		cerebras.WithSystemPrompt(cfg.Chat.SystemPrompt),
		cerebras.WithTemperature(cfg.Chat.Temperature),
		cerebras.WithTopP(cfg.Chat.TopP),
		cerebras.WithMaxTokens(cfg.Chat.MaxTokens),
		cerebras.WithTimeout(time.Duration(cfg.Chat.TimeoutSeconds)*time.Second),
		cerebras.WithMaxRefreshRetries(cfg.Chat.MaxRefreshRetries),
		cerebras.WithLogger(logger),
		cerebras.WithProgress(ui.NewSpinner(os.Stderr)),
	)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	ctx := context.Background()

	if cfg.Chat.Stream {
		err = runStream(ctx, client, prompt)
	} else {
		err = runBlocking(ctx, client, prompt)
	}
	if err != nil {
		logger.Error("generation failed", slog.String("error", err.Error()))
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	if key := client.APIKey(); key != "" {
		ui.PrintKeyRefreshed(security.MaskKey(key))
	}
}

// runStream prints deltas as they arrive.
func runStream(ctx context.Context, client *cerebras.Client, prompt string) error {
	stream, err := client.GenerateStream(ctx, prompt)
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Next() {
		fmt.Print(stream.Current().Content)
	}
	fmt.Println()
	return stream.Err()
}

// runBlocking waits for the whole completion before printing.
func runBlocking(ctx context.Context, client *cerebras.Client, prompt string) error {
	completion, err := client.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Println(completion.Content)
	return nil
}

// readPrompt joins the arguments, falling back to one line from stdin.
func readPrompt(args []string) (string, error) {
	if prompt := strings.TrimSpace(strings.Join(args, " ")); prompt != "" {
		return prompt, nil
	}

	fmt.Fprint(os.Stderr, "prompt> ")
	in := bufio.NewScanner(os.Stdin)
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", fmt.Errorf("reading prompt: %w", err)
		}
		return "", fmt.Errorf("no prompt provided")
	}
	return strings.TrimSpace(in.Text()), nil
}

// setupLogger creates a structured logger with secret redaction. When an
// output path is configured the log file is size-rotated.
func setupLogger(cfg *config.Configuration) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out io.Writer = os.Stderr
	if cfg.Logging.OutputPath != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.Logging.OutputPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(security.NewRedactedHandler(handler))
	slog.SetDefault(logger)
	return logger
}
