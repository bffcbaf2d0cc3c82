package main

import (
	"github.com/spf13/cobra"

	"github.com/noventa-dev/noventa/internal/config"
)

func devCmd() *cobra.Command {
	var (
		port        int
		host        string
		interpreter string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the server with hot reload.

The dev server watches the pages and components directories; template
and script edits are applied to the running server and connected
browsers refresh automatically. Render errors show as an overlay with
source location and traceback.

Examples:
  noventa dev
  noventa dev --port=8080
  noventa dev --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			return runServer(cfg, interpreter, true)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from noventa.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from noventa.json)")
	cmd.Flags().StringVar(&interpreter, "interpreter", "python3", "Script runtime interpreter binary")

	return cmd
}
