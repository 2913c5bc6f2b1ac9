// Package main is the entrypoint for the satfield CLI.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
)

func main() {
	// Logs go to stderr; stdout carries exactly one JSON result object so the
	// invoking orchestrator can parse it.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		emitFatal(err)
	}
}

// emitFatal serializes an unrecoverable failure as the invocation result and
// exits non-zero. Logical failures (empty collection, unknown mode) never
// reach here; they are reported as payloads with exit code 0.
func emitFatal(err error) {
	slog.Error("invocation failed", "error", err)
	_ = emit(map[string]any{
		"error": err.Error(),
		"trace": string(debug.Stack()),
	})
	os.Exit(1)
}
