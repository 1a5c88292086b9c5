package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/assay/internal/workflow"
)

var errBatchIncomplete = errors.New("batch finished with unresolved materials")

func newBatchCmd(a *app) *cobra.Command {
	var (
		file        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Classify materials listed one per line in a file and print the outcomes as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			materials, err := loadMaterials(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}

			if concurrency <= 0 {
				concurrency = a.cfg.Workflow.Concurrency
			}
			return a.report(workflow.Batch(cmd.Context(), rt, materials, concurrency))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one material per line (- for stdin)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "materials classified in parallel (default from config)")
	cmd.MarkFlagRequired("file")
	return cmd
}

// report prints every outcome and returns errBatchIncomplete when any
// material did not resolve.
func (a *app) report(outcomes []workflow.Outcome) error {
	if err := a.printJSON(outcomes); err != nil {
		return err
	}

	unresolved := 0
	for _, o := range outcomes {
		if o.Status != workflow.StatusResolved {
			unresolved++
		}
	}
	if unresolved > 0 {
		return fmt.Errorf("%w: %d of %d", errBatchIncomplete, unresolved, len(outcomes))
	}
	return nil
}

// loadMaterials reads path, or stdin when path is "-".
func loadMaterials(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return readMaterials(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open materials: %w", err)
	}
	defer f.Close()
	return readMaterials(f)
}

// readMaterials returns one material per non-blank line. Lines starting
// with # are comments.
func readMaterials(r io.Reader) ([]string, error) {
	var materials []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		materials = append(materials, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read materials: %w", err)
	}
	return materials, nil
}
