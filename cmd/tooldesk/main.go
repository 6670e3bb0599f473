// Command tooldesk serves the tool catalog over newline-delimited JSON
// on stdio (default) or over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tooldesk/tooldesk/internal/catalog"
	"github.com/tooldesk/tooldesk/internal/core"
	"github.com/tooldesk/tooldesk/internal/db"
	"github.com/tooldesk/tooldesk/internal/deploy"
	"github.com/tooldesk/tooldesk/internal/github"
	"github.com/tooldesk/tooldesk/internal/gitrepo"
	httpsvr "github.com/tooldesk/tooldesk/internal/http"
	"github.com/tooldesk/tooldesk/internal/preview"
	"github.com/tooldesk/tooldesk/internal/stdio"
	"github.com/tooldesk/tooldesk/internal/workspace"
)

var (
	version   = ""
	gitCommit = ""
	buildTime = ""
)

var (
	httpMode bool
	host     string
	port     int
)

var rootCmd = &cobra.Command{
	Use:           "tooldesk",
	Short:         "Tool-dispatch server speaking JSON over stdio or HTTP",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&httpMode, "http", false, "serve HTTP instead of stdio")
	rootCmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	rootCmd.Flags().IntVar(&port, "port", 8000, "HTTP listen port")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(".env"); err == nil {
		godotenv.Load(".env")
	}
	applyEnvDefaults(cmd)

	// Protocol responses own stdout in stdio mode; logs move to stderr.
	logOut := io.Writer(os.Stdout)
	if !httpMode {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ghClient, err := github.FromEnv()
	if err != nil {
		return fmt.Errorf("github client init failed: %w", err)
	}
	var repoAPI gitrepo.RepoAPI
	if ghClient != nil {
		repoAPI = ghClient
		logger.Info("github metadata enrichment enabled")
	}

	sessions := preview.NewSessions()
	registry := catalog.Build(catalog.Deps{
		RepoContext: core.NewRepoContext(),
		GitHub:      repoAPI,
		Deployments: deploy.FromEnv(),
		Sessions:    sessions,
		Workspace:   workspace.New(),
	})
	dispatcher := core.NewDispatcher(registry, logger)

	var store *db.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		store, err = db.Open(dsn)
		if err != nil {
			return fmt.Errorf("audit store init failed: %w", err)
		}
		defer store.Close()
		dispatcher.SetRecorder(store)
		logger.Info("audit store enabled")
	}

	if !httpMode {
		err := stdio.NewServer(dispatcher, os.Stdin, os.Stdout, logger).Serve(cmd.Context())
		stopPreviews(sessions, logger)
		return err
	}

	var lister httpsvr.CallLister
	if store != nil {
		lister = store
	}
	server := httpsvr.NewServer(fmt.Sprintf("%s:%d", host, port), dispatcher, lister, logger, httpsvr.BuildInfo{
		Version:   version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	server.Shutdown(ctx)
	stopPreviews(sessions, logger)
	logger.Info("shutdown complete")
	return nil
}

// applyEnvDefaults lets TOOLDESK_HOST and TOOLDESK_PORT stand in for
// flags that were not given explicitly.
func applyEnvDefaults(cmd *cobra.Command) {
	if !cmd.Flags().Changed("host") {
		if v := os.Getenv("TOOLDESK_HOST"); v != "" {
			host = v
		}
	}
	if !cmd.Flags().Changed("port") {
		if v := os.Getenv("TOOLDESK_PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				port = p
			}
		}
	}
}

func stopPreviews(sessions *preview.Sessions, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := sessions.StopAll(ctx); err != nil {
		logger.Error("preview shutdown failed", "err", err)
	}
}
