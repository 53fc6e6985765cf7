package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/dcma/internal/hocr"
)

var recognizeEngine string

var hocrCmd = &cobra.Command{
	Use:   "hocr",
	Short: "Generate and recognize page OCR documents",
}

var hocrGenerateCmd = &cobra.Command{
	Use:   "generate <batch> [page]",
	Short: "Build HOCR documents from stored hOCR markup",
	Long: `Build HOCR documents from the hOCR markup stored with each page.
With no page every page of the batch is processed; a page that fails is
reported and does not stop the others.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runHocrGenerate,
}

var hocrRecognizeCmd = &cobra.Command{
	Use:   "recognize <batch> <page>",
	Short: "Run OCR over a page image and build its HOCR document",
	Args:  cobra.ExactArgs(2),
	RunE:  runHocrRecognize,
}

func init() {
	hocrRecognizeCmd.Flags().StringVar(&recognizeEngine, "engine", "", "OCR engine (default from config)")

	hocrCmd.AddCommand(hocrGenerateCmd)
	hocrCmd.AddCommand(hocrRecognizeCmd)
}

func runHocrGenerate(cmd *cobra.Command, args []string) error {
	id := args[0]
	out := cmd.OutOrStdout()

	return withLock(id, func() error {
		if len(args) == 2 {
			p, err := ocr.GeneratePage(ctxOf(cmd), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d lines\n", p.PageID, len(p.Lines))
			return nil
		}

		report, err := ocr.GenerateBatch(ctxOf(cmd), id)
		if err != nil {
			return err
		}
		for _, p := range report.Generated {
			fmt.Fprintf(out, "%s: ok\n", p)
		}
		for _, f := range report.Failed {
			fmt.Fprintf(out, "%s: %s\n", f.PageID, f.Error)
		}
		if len(report.Failed) > 0 {
			return fmt.Errorf("%d of %d pages failed", len(report.Failed), len(report.Failed)+len(report.Generated))
		}
		return nil
	})
}

func runHocrRecognize(cmd *cobra.Command, args []string) error {
	id, pageID := args[0], args[1]

	var (
		engine hocr.Engine
		err    error
	)
	if recognizeEngine != "" {
		engine, err = hocr.Lookup(recognizeEngine)
	} else {
		engine, err = ocr.Engine()
	}
	if err != nil {
		return err
	}

	return withLock(id, func() error {
		p, err := ocr.Recognize(ctxOf(cmd), id, pageID, engine)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d lines via %s\n", p.PageID, len(p.Lines), engine.Name())
		return nil
	})
}
