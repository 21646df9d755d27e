package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/neuroquiz/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quiz HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, cmd, bootstrapOptions{withLLM: true})
		if err != nil {
			return err
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.cfg.HTTPAddr
		}

		srv := httpapi.NewServer(httpapi.RouterConfig{
			Answers:      a.orch,
			Mistakes:     a.learners,
			Resetter:     a.learners,
			Logger:       a.log,
			AllowOrigins: a.cfg.AllowOrigins,
		})
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides NEUROQUIZ_HTTP_ADDR, default :8000)")
}
