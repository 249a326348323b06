package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bookinfo/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Run the HTTP API serving author, work, edition, search and bulk lookups.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", viper.GetString("server.listen"), "listen address")
	_ = viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	service, err := buildService()
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	srv := server.New(service)
	if err := srv.Run(viper.GetString("server.listen")); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
