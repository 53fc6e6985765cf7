package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/dcma/internal/ingest"
)

var (
	ingestClass string
	ingestName  string
	ingestID    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>",
	Short: "Create a batch instance from a PDF",
	Long: `Create a batch instance from a PDF. Each PDF page becomes a page of a
single document, with page, thumbnail and display images rendered into the
batch folder.

Examples:
  dcma ingest scans/invoice.pdf --class BC1
  dcma ingest scans/invoice.pdf --class BC1 --id BI00000000002A --name "March invoices"`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <batch>",
	Short: "Delete a batch instance and its archived checkpoints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if err := withLock(id, func() error { return intake.Delete(ctxOf(cmd), id) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", id)
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup <batch> <stage>",
	Short: "Snapshot a batch under a pipeline stage name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, stage := args[0], args[1]
		if err := withLock(id, func() error { return intake.BackUp(ctxOf(cmd), id, stage) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s written for %s\n", stage, id)
		return nil
	},
}

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints <batch>",
	Short: "List the stages a batch has been checkpointed at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stages, err := intake.Checkpoints(ctxOf(cmd), args[0])
		if err != nil {
			return err
		}
		for _, s := range stages {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestClass, "class", "", "batch class identifier (required)")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "batch name (default file name)")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "batch instance identifier (default generated)")
	ingestCmd.MarkFlagRequired("class")
}

func runIngest(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	b, err := intake.Ingest(ctxOf(cmd), ingest.Command{
		BatchID:      ingestID,
		BatchClassID: ingestClass,
		BatchName:    ingestName,
		Filename:     filepath.Base(args[0]),
		Data:         data,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s (%d pages)\n", b.BatchInstanceIdentifier, b.PageCount())
	return nil
}
