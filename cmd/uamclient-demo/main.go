// Package main is a demo harness for the uamclient library: a CLI that
// submits a single unmanaged application, registers as its master, issues
// one allocate request, and finishes — exercising the whole lifecycle
// against a real CRM endpoint. It is not the library's programmatic
// surface (spec.md §6 "Non-goals: CLI/console entry point, since the
// client is a library consumed programmatically"); it exists only to give
// the library a runnable shape, the same way the teacher ships
// cmd/agent/main.go alongside its library packages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	uam "github.com/nodeforge/uamclient"
	"github.com/nodeforge/uamclient/internal/rpcproxy"
)

type config struct {
	crmAddr       string
	applicationID string
	queue         string
	submitterUser string
	logLevel      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config{}

	root := &cobra.Command{
		Use:   "uamclient-demo",
		Short: "uamclient-demo — exercises the unmanaged application master client lifecycle",
		Long: `uamclient-demo submits a placeholder application to a CRM, registers as
its unmanaged application master, issues one allocate request, and finishes.
It is a demonstration harness for the uamclient library, not the library's
supported integration surface.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	root.PersistentFlags().StringVar(&cfg.crmAddr, "crm-addr", envOrDefault("UAM_CRM_ADDR", "localhost:8032"), "CRM gRPC address (host:port)")
	root.PersistentFlags().StringVar(&cfg.applicationID, "application-id", envOrDefault("UAM_APPLICATION_ID", ""), "Application id to submit (required)")
	root.PersistentFlags().StringVar(&cfg.queue, "queue", envOrDefault("UAM_QUEUE", ""), "Submission queue (blank = \"default\")")
	root.PersistentFlags().StringVar(&cfg.submitterUser, "submitter-user", envOrDefault("UAM_SUBMITTER_USER", ""), "Submitting user principal (required)")
	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", envOrDefault("UAM_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	return root
}

func run(ctx context.Context, cfg *config) error {
	logger, err := buildLogger(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.applicationID == "" || cfg.submitterUser == "" {
		return fmt.Errorf("--application-id and --submitter-user are required")
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := rpcproxy.Dial(cfg.crmAddr)
	if err != nil {
		return fmt.Errorf("failed to dial CRM: %w", err)
	}
	defer conn.Close()

	logger.Info("dialed CRM", zap.String("crm_addr", cfg.crmAddr))

	controller, err := uam.New(
		uam.Config{},
		uam.ApplicationID(cfg.applicationID),
		cfg.queue,
		cfg.submitterUser,
		fmt.Sprintf("%d", time.Now().Unix()),
		rpcproxy.NewClientProxy(conn),
		rpcproxy.NewMasterProxy(conn),
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to build controller: %w", err)
	}

	if _, err := controller.CreateAndRegister(ctx, uam.RegisterRequest{}); err != nil {
		return fmt.Errorf("create_and_register failed: %w", err)
	}
	logger.Info("registered as application master", zap.Stringer("attempt_id", *controller.AttemptID()))

	done := make(chan error, 1)
	err = controller.AllocateAsync(uam.AllocateRequest{Ask: []uam.Resource{uam.DefaultResource}}, func(resp uam.AllocateResponse, err error) {
		if err != nil {
			logger.Error("allocate failed", zap.Error(err))
		} else {
			logger.Info("allocate completed", zap.Int("containers", len(resp.AllocatedContainers)))
		}
		done <- err
	})
	if err != nil {
		return fmt.Errorf("allocate_async failed: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}

	if _, err := controller.Finish(ctx, uam.FinishRequest{FinalStatus: "SUCCEEDED"}); err != nil {
		return fmt.Errorf("finish failed: %w", err)
	}
	logger.Info("uamclient-demo finished")
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
