package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/internal/kernel"
	"github.com/shashiranjanraj/stockroom/internal/server"
)

var (
	servePortFlag        string
	serveWorkersFlag     int
	serveNoSchedulerFlag bool
)

// stockroom serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server with the scheduler and queue workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := kernel.Boot(cmdContext(cmd))
		if err != nil {
			return err
		}
		defer k.Close()

		opts := server.DefaultOptions()
		if servePortFlag != "" {
			opts.Addr = ":" + servePortFlag
		}
		if cmd.Flags().Changed("workers") {
			opts.Workers = serveWorkersFlag
		}
		opts.Scheduler = !serveNoSchedulerFlag
		return server.Start(k, opts)
	},
}

// stockroom route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Route registration only stores handlers, so an unbooted kernel is enough.
		infos := new(kernel.Kernel).Router().Routes()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME\tACCESS")
		fmt.Fprintln(w, "------\t----\t----\t------")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name, ri.Access)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePortFlag, "port", "p", "", "Port to listen on (default APP_PORT)")
	serveCmd.Flags().IntVarP(&serveWorkersFlag, "workers", "w", config.QueueWorkers(), "Queue workers to run in-process (0 disables)")
	serveCmd.Flags().BoolVar(&serveNoSchedulerFlag, "no-scheduler", false, "Do not run scheduled alert batches")
}
