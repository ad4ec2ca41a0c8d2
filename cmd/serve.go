package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/datasage-cli/internal/logging"
	"github.com/KaramelBytes/datasage-cli/internal/profiler"
	"github.com/KaramelBytes/datasage-cli/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local analysis service for offline use and testing",
	Long: `Runs a local implementation of the analysis API: it profiles uploaded CSV and
XLSX files and generates heuristic quality insights. Point the CLI at it with
--api-url http://localhost:8000 (the default).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		addr := c.ServeAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		log := logging.New("server")
		svc := server.New(server.Config{
			Version:     Version,
			Environment: c.Environment,
			Policy:      c.Policy(),
		}, profiler.New(profiler.DefaultOptions()), log)

		srv := &http.Server{
			Addr:              addr,
			Handler:           svc.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Serving analysis API on %s (Ctrl+C to stop)\n", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down", zap.String("addr", addr))
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "listen address (overrides serve_addr)")
}
