package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/assay/pkg/taxonomy"
)

var (
	errStorageDisabled = errors.New("blob storage is not configured")
	errBlobExists      = errors.New("blob already exists (use --force to replace it)")
)

var contentTypes = map[taxonomy.Format]string{
	taxonomy.FormatCSV:  "text/csv",
	taxonomy.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func newTaxonomyCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Print the loaded taxonomy tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := a.taxonomy(cmd)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(tx.Tree())
			}

			for _, c := range tx.Tree() {
				fmt.Fprintln(a.stdout, c.Name)
				for _, s := range c.Subcategories {
					fmt.Fprintf(a.stdout, "  %s\n", s.Name)
					for _, g := range s.Grades {
						fmt.Fprintf(a.stdout, "    %s\n", g)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")

	cmd.AddCommand(newTaxonomyUploadCmd(a))
	return cmd
}

func newTaxonomyUploadCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "upload <file> [key]",
		Short: "Upload a taxonomy file to blob storage (key defaults to the file name)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.infra.Storage == nil {
				return errStorageDisabled
			}

			path := args[0]
			key := filepath.Base(path)
			if len(args) == 2 {
				key = args[1]
			}

			format, err := taxonomy.FormatOf(key)
			if err != nil {
				return err
			}

			// The file must parse as a taxonomy before it is uploaded.
			if _, err := taxonomy.Load(path, a.cfg.Taxonomy.Sheet); err != nil {
				return err
			}

			if !force {
				exists, err := a.infra.Storage.Exists(cmd.Context(), key)
				if err != nil {
					return err
				}
				if exists {
					return fmt.Errorf("%s: %w", key, errBlobExists)
				}
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open taxonomy: %w", err)
			}
			defer f.Close()

			if err := a.infra.Storage.Upload(cmd.Context(), key, f, contentTypes[format]); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "uploaded %s as %s%s\n", path, taxonomy.BlobScheme, key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing blob")
	return cmd
}
