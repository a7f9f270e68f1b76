package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tsellier/ghostpatch/gateway"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game to browser clients over a websocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, defs, err := loadSetup()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Gateway.Addr = serveAddr
		}

		eng := buildEngine(cfg, defs, log)
		srv := gateway.NewServer(eng, cfg.Gateway.AllowedOrigins, log)

		mux := http.NewServeMux()
		srv.Attach(mux)

		log.Info().Str("addr", cfg.Gateway.Addr).Str("game", defs.Game.Title).Msg("gateway listening")
		return http.ListenAndServe(cfg.Gateway.Addr, mux)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
