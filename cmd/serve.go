package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"moviematch/internal/server"
	"moviematch/internal/session"
)

var serveBind string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendation sessions over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		engine, err := LoadEngine(d)
		if err != nil {
			return err
		}

		bind := serveBind
		if bind == "" {
			bind = cfg.Server.Bind
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sessions := session.NewManager(engine, sessionOptions(cfg), logger)
		srv := server.New(engine, sessions, d, server.Options{
			Bind:        bind,
			SessionIdle: time.Duration(cfg.Server.SessionIdleMinutes) * time.Minute,
			Logger:      logger,
		})
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveBind, "bind", "", "Listen address (default server.bind)")
	rootCmd.AddCommand(serveCmd)
}
