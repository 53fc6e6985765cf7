package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var classCmd = &cobra.Command{
	Use:   "class",
	Short: "Manage batch class folders",
}

var classProjectFilesCmd = &cobra.Command{
	Use:   "project-files <class> <document-type>",
	Short: "List the project files of a document type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := resolver.ProjectFiles(args[0], args[1])
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var classCopyFolderCmd = &cobra.Command{
	Use:   "copy-folder <class> <source> <folder>",
	Short: "Copy the TIFF images under source into a class folder",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		copied, err := batchStore.CopyFolder(ctxOf(cmd), args[1], args[2], args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Copied %d files to %s\n", len(copied), args[2])
		return nil
	},
}

var classCopyEmailCmd = &cobra.Command{
	Use:   "copy-email <class> <folder>",
	Short: "Copy an inbound email folder into a class folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		copied, err := batchStore.CopyEmailFolder(ctxOf(cmd), args[1], args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Copied %d files to %s\n", len(copied), args[1])
		return nil
	},
}

var classDeleteDocTypeCmd = &cobra.Command{
	Use:   "delete-doctype <class> <document-type>...",
	Short: "Remove the project and sample folders of document types",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := batchStore.DeleteDocTypeFolders(ctxOf(cmd), args[0], args[1:]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d document type folders of %s\n", len(args)-1, args[0])
		return nil
	},
}

var webServicesCmd = &cobra.Command{
	Use:   "web-services-folder",
	Short: "Print the web services working folder, creating it if needed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolver.WebServicesFolder(true)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

func init() {
	classCmd.AddCommand(classProjectFilesCmd)
	classCmd.AddCommand(classCopyFolderCmd)
	classCmd.AddCommand(classCopyEmailCmd)
	classCmd.AddCommand(classDeleteDocTypeCmd)
}
