package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kiwari-pos/display/internal/client"
	"github.com/kiwari-pos/display/internal/config"
	"github.com/kiwari-pos/display/internal/dispatch"
	"github.com/kiwari-pos/display/internal/handler"
	"github.com/kiwari-pos/display/internal/metrics"
	"github.com/kiwari-pos/display/internal/recon"
	"github.com/kiwari-pos/display/internal/router"
	"github.com/kiwari-pos/display/internal/store"
	"github.com/kiwari-pos/display/internal/ws"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:           "displayd",
		Short:         "Order display synchronization daemon",
		Long:          "Keeps point-of-sale displays converged on the in-flight order set for one branch, via the order service's push channel with pull reconciliation.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgPath)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	return cmd
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.BranchID == "" {
		return errors.New("branch id is required (BRANCH_ID env or branch_id in config)")
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	mets := metrics.NewRegistry()
	st := store.New()

	api := client.New(cfg.ServiceURL, &http.Client{Timeout: cfg.FetchTimeout()})
	boot := recon.New(api, st, log)
	disp := dispatch.New(st, log, mets)
	mgr := ws.NewManager(cfg.PushURL, boot, disp, st, log, mets)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mgr.Connect(ctx, cfg.BranchID); err != nil {
		var rerr *recon.ReconciliationError
		if errors.As(err, &rerr) {
			// Channel is up; the store seeds on the next reconcile.
			log.Error("initial reconciliation failed", "error", rerr.Error())
		} else {
			return err
		}
	}
	defer mgr.Disconnect()

	r := router.New(
		handler.NewOrderHandler(st, api),
		handler.NewConnectionHandler(mgr),
		mets,
	)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Info("displayd listening", "addr", cfg.ListenAddr, "branch_id", cfg.BranchID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
