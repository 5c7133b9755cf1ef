package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func importCommand() *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a ledger workbook (xlsx or csv) synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			if overwrite {
				rt.cfg.Imports.OverwriteConfirmed = true
			}
			deps, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := deps.Imports.ImportFile(cmd.Context(), filepath.Base(args[0]), f, info.Size())
			if result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", result.Imported, result.Skipped)
			}
			return err
		}),
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite-confirmed", false, "also overwrite rows that are already confirmed")
	return cmd
}
