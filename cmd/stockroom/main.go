// Command stockroom runs the inventory service and its maintenance tasks.
//
//	stockroom serve             # HTTP API + scheduler + queue workers
//	stockroom migrate           # run migrations
//	stockroom seed              # demo catalog and admin account
//	stockroom alerts:send       # one alert batch now
//	stockroom products:export   # products.csv / products.xlsx
//	stockroom products:import   # upsert products from a CSV
//	stockroom route:list        # list API routes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Migrations and seeders register themselves from init.
	_ "github.com/shashiranjanraj/stockroom/database/migrations"
	_ "github.com/shashiranjanraj/stockroom/database/seeders"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "stockroom",
	Short:         "Stockroom inventory management service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(scheduleRunCmd)

	// Inventory
	rootCmd.AddCommand(alertsSendCmd)
	rootCmd.AddCommand(productsExportCmd)
	rootCmd.AddCommand(productsImportCmd)
}
