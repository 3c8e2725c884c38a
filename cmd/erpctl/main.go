package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hospital-erp/backend/internal/application/console"
	"github.com/hospital-erp/backend/internal/application/store"
	"github.com/hospital-erp/backend/internal/infrastructure/apiclient"
	"github.com/hospital-erp/backend/internal/infrastructure/config"
	"github.com/hospital-erp/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// app carries what every subcommand needs
type app struct {
	console   *console.Console
	tokenFile string
	out       io.Writer
	log       *zap.Logger
}

func main() {
	var (
		baseURL   string
		tokenFile string
		logLevel  string
	)

	flag.StringVar(&baseURL, "url", "", "API base URL (default from client.base_url)")
	flag.StringVar(&tokenFile, "token-file", defaultTokenFile(), "File holding the session token")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(config.LogConfig{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}

	client, err := apiclient.New(cfg.Client, apiclient.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create API client", zap.Error(err))
	}

	a := &app{
		console:   console.New(client, store.New(log), log),
		tokenFile: tokenFile,
		out:       os.Stdout,
		log:       log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, args); err != nil {
		reportError(err)
		stop()
		_ = logger.Sync(log)
		os.Exit(exitCode(err))
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	if cmd.session {
		if err := a.resume(ctx); err != nil {
			return err
		}
	}
	return cmd.run(ctx, a, args[1:])
}

// resume reloads the session of the stored token
func (a *app) resume(ctx context.Context) error {
	data, err := os.ReadFile(a.tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return errors.New("not logged in, run: erpctl login -u <username>")
	}
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}
	if _, err := a.console.Resume(ctx, strings.TrimSpace(string(data))); err != nil {
		if errors.Is(err, apiclient.ErrSessionExpired) {
			_ = os.Remove(a.tokenFile)
		}
		return err
	}
	return nil
}

func (a *app) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(a.tokenFile, []byte(token+"\n"), 0o600)
}

// print writes v as indented JSON
func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "erpctl", "token")
}

func reportError(err error) {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "Error: %s (%s)\n", apiErr.Message, apiErr.Code)
		if apiErr.RequestID != "" {
			fmt.Fprintf(os.Stderr, "Request ID: %s\n", apiErr.RequestID)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func exitCode(err error) int {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindAuthorization {
		return 3
	}
	return 1
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Hospital ERP command-line client

Usage:
  erpctl [flags] <command> [command flags]

Commands:
  login -u <username> [-p <password>]   Log in and store the session token
  logout                                Revoke the token and forget it
  modules                               Show the modules of the session
  ledger main|department [-dept id]     Show a ledger
  restock -item <id> -qty <n>           Add a batch to a warehouse item
  request list [-status s]              List inventory requests
  request create -item <name> -qty <n>  Ask the warehouse for stock
  request status -id <id> -to <status>  Move a request along its workflow
  checkout token -id <id>               Issue a checkout token for a request
  checkout complete -id <id> -token <t> Complete a checkout
  report monthly [-month m -year y]     Monthly usage report
  export csv [-o file]                  Export the transaction ledger

Flags:
`)
	flag.PrintDefaults()
}
