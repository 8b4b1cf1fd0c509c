package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajcoder25/bookverse/internal/router"
	"github.com/ajcoder25/bookverse/pkg/global"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var ensureIndexes bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ensureIndexes)
		},
	}

	cmd.Flags().BoolVar(&ensureIndexes, "ensure-indexes", true, "create MongoDB indexes before serving")

	return cmd
}

func runServe(parent context.Context, ensureIndexes bool) error {
	cfg, err := global.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := global.GetDefaultTimer()
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	if ensureIndexes && a.mongo != nil {
		if err := a.mongo.EnsureIndexes(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewEngine(cfg, a.handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server is running on port %s", cfg.Port)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := global.GetDefaultTimer()
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
