package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/signalbt/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recorded runs over HTTP",
	Long: `Serve starts a read only JSON API over a SQLite journal.

Endpoints:
  GET /health
  GET /api/runs?limit=N
  GET /api/runs/:id
  GET /api/runs/:id/equity
  GET /api/runs/:id/trades
  GET /api/runs/:id/states?symbol=SYM

Example:
  signalbt serve --db runs.sqlite --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "listen address")
	serveCmd.Flags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB")
}

func runServe(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	s := api.NewServer(j, serveAddr, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- s.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down", zap.String("addr", serveAddr))
	return s.Shutdown(context.Background())
}
