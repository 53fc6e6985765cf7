package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/dcma/internal/batch"
)

var (
	showJSON    bool
	flagsByType bool
	moveAfter   bool
	typeFields  []string
)

var showCmd = &cobra.Command{
	Use:   "show <batch>",
	Short: "Print the documents and pages of a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := docs.Find(ctxOf(cmd), args[0])
		if err != nil {
			return err
		}
		if showJSON {
			return printJSON(cmd, b)
		}
		printTree(cmd, b)
		return nil
	},
}

var flagsCmd = &cobra.Command{
	Use:   "flags <batch>",
	Short: "Report whether a batch still needs review or validation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := docs.Flags(ctxOf(cmd), args[0], !flagsByType)
		if err != nil {
			return err
		}
		return printJSON(cmd, f)
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <batch> <target-doc> <source-doc>",
	Short: "Append the pages of one document to another",
	Args:  cobra.ExactArgs(3),
	RunE: edit(func(cmd *cobra.Command, id string, args []string) (*batch.Batch, error) {
		return docs.Merge(ctxOf(cmd), id, args[0], args[1])
	}),
}

var splitCmd = &cobra.Command{
	Use:   "split <batch> <doc> <page>",
	Short: "Move a page and every page after it into a new document",
	Args:  cobra.ExactArgs(3),
	RunE: edit(func(cmd *cobra.Command, id string, args []string) (*batch.Batch, error) {
		return docs.Split(ctxOf(cmd), id, args[0], args[1])
	}),
}

var swapCmd = &cobra.Command{
	Use:   "swap <batch> <doc/page> <doc/page>",
	Short: "Exchange two pages",
	Long: `Exchange two pages, within one document or across documents.

Examples:
  dcma swap BI1 DOC1/PG2 DOC1/PG3
  dcma swap BI1 DOC1/PG2 DOC2/PG5`,
	Args: cobra.ExactArgs(3),
	RunE: edit(func(cmd *cobra.Command, id string, args []string) (*batch.Batch, error) {
		docA, pageA, err := pageRef(args[0])
		if err != nil {
			return nil, err
		}
		docB, pageB, err := pageRef(args[1])
		if err != nil {
			return nil, err
		}
		if docA == docB {
			return docs.SwapPagesWithin(ctxOf(cmd), id, docA, pageA, pageB)
		}
		return docs.SwapPages(ctxOf(cmd), id, docA, pageA, docB, pageB)
	}),
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <batch> <doc> <page>...",
	Short: "Replace the page order of a document",
	Args:  cobra.MinimumNArgs(3),
	RunE: edit(func(cmd *cobra.Command, id string, args []string) (*batch.Batch, error) {
		return docs.Reorder(ctxOf(cmd), id, args[0], args[1:])
	}),
}

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <batch> <doc> <page>",
	Short: "Copy a page and its artifacts to a new page",
	Args:  cobra.ExactArgs(3),
	RunE: edit(func(cmd *cobra.Command, id string, args []string) (*batch.Batch, error) {
		return docs.Duplicate(ctxOf(cmd), id, args[0], args[1])
	}),
}

var removeCmd = &cobra.Command{
	Use:   "remove <batch> <doc> <page>",
	Short: "Delete a page and its artifacts",
	Args:  cobra.ExactArgs(3),
	RunE: edit(func(cmd *cobra.Command, id string, args []string) (*batch.Batch, error) {
		return docs.RemovePage(ctxOf(cmd), id, args[0], args[1])
	}),
}

var moveCmd = &cobra.Command{
	Use:   "move <batch> <doc/page> <doc/page>",
	Short: "Move a page before (or with --after, after) a target page",
	Args:  cobra.ExactArgs(3),
	RunE: edit(func(cmd *cobra.Command, id string, args []string) (*batch.Batch, error) {
		fromDoc, fromPage, err := pageRef(args[0])
		if err != nil {
			return nil, err
		}
		toDoc, toPage, err := pageRef(args[1])
		if err != nil {
			return nil, err
		}
		return docs.MovePage(ctxOf(cmd), id, fromDoc, fromPage, toDoc, toPage, moveAfter)
	}),
}

var doctypeCmd = &cobra.Command{
	Use:   "doctype <batch> <doc> <type>",
	Short: "Reclassify a document",
	Long: `Reclassify a document, replacing its document level fields.

Examples:
  dcma doctype BI1 DOC2 Invoice --field InvoiceNumber=A-17 --field Total=99.50`,
	Args: cobra.ExactArgs(3),
	RunE: edit(func(cmd *cobra.Command, id string, args []string) (*batch.Batch, error) {
		fields, err := parseFields(typeFields)
		if err != nil {
			return nil, err
		}
		return docs.UpdateDocType(ctxOf(cmd), id, args[0], args[1], fields)
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export <batch> <doc>",
	Short: "Assemble a document's page images into a PDF",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out string
		err := withLock(args[0], func() error {
			var err error
			out, err = docs.Export(ctxOf(cmd), args[0], args[1])
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the batch as JSON")
	flagsCmd.Flags().BoolVar(&flagsByType, "by-type", false, "require review only for unclassified documents")
	moveCmd.Flags().BoolVar(&moveAfter, "after", false, "place the page after the target")
	doctypeCmd.Flags().StringArrayVar(&typeFields, "field", nil, "document level field as name=value (repeatable)")
}

// edit wraps a batch edit taking the batch identifier as its first argument.
// The edit runs under the batch lock and the resulting tree is printed.
func edit(fn func(cmd *cobra.Command, id string, args []string) (*batch.Batch, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id := args[0]
		var b *batch.Batch
		err := withLock(id, func() error {
			var err error
			b, err = fn(cmd, id, args[1:])
			return err
		})
		if err != nil {
			return err
		}
		printTree(cmd, b)
		return nil
	}
}

func printTree(cmd *cobra.Command, b *batch.Batch) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", b.BatchInstanceIdentifier, b.BatchClassIdentifier)
	for _, d := range b.Documents {
		fmt.Fprintf(out, "  %s %s: %s\n", d.Identifier, d.Type, strings.Join(d.PageIDs(), " "))
	}
}

func pageRef(s string) (doc, page string, err error) {
	doc, page, ok := strings.Cut(s, "/")
	if !ok || doc == "" || page == "" {
		return "", "", fmt.Errorf("page reference %q: want <doc>/<page>", s)
	}
	return doc, page, nil
}

func parseFields(raw []string) ([]batch.Field, error) {
	fields := make([]batch.Field, 0, len(raw))
	for i, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("field %q: want name=value", r)
		}
		fields = append(fields, batch.Field{Name: name, Value: value, FieldOrderNumber: i + 1})
	}
	return fields, nil
}
