package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/database/seeders"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
)

// bootDB loads config and opens the database connection.
func bootDB() error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect()
}

func closeDB() {
	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// stockroom migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer closeDB()
		fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
		n, err := migration.New(database.DB, cmd.OutOrStdout()).Run()
		if err != nil {
			return err
		}
		if n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %d migration(s) ran\n", n)
		}
		return nil
	},
}

// stockroom migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer closeDB()
		fmt.Fprintln(cmd.OutOrStdout(), "Rolling back last batch…")
		_, err := migration.New(database.DB, cmd.OutOrStdout()).Rollback()
		return err
	},
}

// stockroom migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer closeDB()
		return migration.New(database.DB, cmd.OutOrStdout()).Status()
	},
}

var seedOnlyFlag []string

// stockroom seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run the database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer closeDB()
		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return seeders.RunAll(database.DB, cmd.OutOrStdout(), seedOnlyFlag...)
	},
}

func init() {
	seedCmd.Flags().StringSliceVar(&seedOnlyFlag, "only", nil, "Run only these seeders ("+strings.Join(seeders.Names(), ", ")+")")
}
