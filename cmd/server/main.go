package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd 默认启动 Web 服务
var rootCmd = &cobra.Command{
	Use:   "studentavis",
	Short: "Innposten web server and editorial tools",
	Long: `Server for the Innposten student newspaper.

Available subcommands:
  serve             - Run the public site and the editorial admin (default)
  init-user         - Create the first editor account
  ensure-categories - Align categories with the editorial whitelist
  seed              - Fill an empty database with demo content`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	rootCmd.AddCommand(serveCmd, initUserCmd, ensureCategoriesCmd, seedCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
