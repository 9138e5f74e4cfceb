package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/internal/kernel"
)

var (
	exportFormatFlag string
	exportOutputFlag string
	exportStoreFlag  bool
)

var exportFormats = map[string]string{
	"csv":  "text/csv",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// stockroom products:export
var productsExportCmd = &cobra.Command{
	Use:   "products:export",
	Short: "Export every product as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		contentType, ok := exportFormats[exportFormatFlag]
		if !ok {
			return fmt.Errorf("unknown format %q (csv or xlsx)", exportFormatFlag)
		}

		ctx := cmdContext(cmd)
		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		var buf bytes.Buffer
		if exportFormatFlag == "xlsx" {
			err = k.Reports.ExportAllXLSX(ctx, services.SystemActor, &buf)
		} else {
			err = k.Reports.ExportAllCSV(ctx, services.SystemActor, &buf)
		}
		if err != nil {
			return err
		}

		if exportStoreFlag {
			key := fmt.Sprintf("exports/products-%s.%s", time.Now().UTC().Format("20060102T150405Z"), exportFormatFlag)
			if err := k.Disk.Put(ctx, key, bytes.NewReader(buf.Bytes()), contentType); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Stored", k.Disk.URL(key))
		}

		switch exportOutputFlag {
		case "":
			if exportStoreFlag {
				return nil
			}
			_, err = io.Copy(cmd.OutOrStdout(), &buf)
			return err
		case "-":
			_, err = io.Copy(cmd.OutOrStdout(), &buf)
			return err
		default:
			return os.WriteFile(exportOutputFlag, buf.Bytes(), 0o644)
		}
	},
}

// stockroom products:import <file.csv>
var productsImportCmd = &cobra.Command{
	Use:   "products:import <file.csv>",
	Short: "Create or update products from a CSV export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		ctx := cmdContext(cmd)
		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		res, err := k.Reports.ImportCSV(ctx, services.SystemActor, f.Name(), f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created: %d  Updated: %d  Rejected: %d\n", res.Created, res.Updated, len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  line %d: %s\n", e.Line, e.Err)
		}
		return nil
	},
}

func init() {
	productsExportCmd.Flags().StringVarP(&exportFormatFlag, "format", "f", "csv", "csv or xlsx")
	productsExportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "", "Write to this file ('-' for stdout; default stdout unless --store)")
	productsExportCmd.Flags().BoolVar(&exportStoreFlag, "store", false, "Archive the export on the storage disk under exports/")
}
