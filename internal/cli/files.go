package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage the files of a batch folder",
}

var filesStoreCmd = &cobra.Command{
	Use:   "store <batch> <file>...",
	Short: "Copy files into a batch folder, replacing same-named files",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, files := args[0], args[1:]
		if err := withLock(id, func() error { return batchStore.StoreFiles(ctxOf(cmd), id, files) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %d files in %s\n", len(files), id)
		return nil
	},
}

var filesBackupCmd = &cobra.Command{
	Use:   "backup <batch> <name>...",
	Short: "Copy batch folder files to its backup folder and archive them",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, names := args[0], args[1:]
		if err := withLock(id, func() error { return batchStore.BackUpFiles(ctxOf(cmd), id, names) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d files of %s\n", len(names), id)
		return nil
	},
}

var filesPathCmd = &cobra.Command{
	Use:   "path <batch> <name>",
	Short: "Print the path of a batch folder file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := batchStore.File(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var filesCatCmd = &cobra.Command{
	Use:   "cat <batch> <name>",
	Short: "Write a batch folder file, or its archived backup, to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := batchStore.Open(ctxOf(cmd), args[0], args[1])
		if err != nil {
			return err
		}
		defer rc.Close()

		_, err = io.Copy(cmd.OutOrStdout(), rc)
		return err
	},
}

func init() {
	filesCmd.AddCommand(filesStoreCmd)
	filesCmd.AddCommand(filesBackupCmd)
	filesCmd.AddCommand(filesPathCmd)
	filesCmd.AddCommand(filesCatCmd)
}
