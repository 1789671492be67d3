package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/logger"
)

var exportToFlag string

var exportCmd = &cobra.Command{
	Use:   "export <markdown-file> <destination>",
	Short: "Convert Markdown to a document format",
	Long: `Export reads a Markdown file and writes it as the target format.

The format is inferred from the destination's extension unless --to is
given. On failure nothing is written and any existing file at the
destination is left intact.`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportToFlag, "to", "t", "", "target format (docx, xlsx, pptx, pdf)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	src, dest := args[0], args[1]

	var format domain.Format
	var err error
	if exportToFlag != "" {
		format, err = domain.ParseFormat(exportToFlag)
	} else {
		format, err = domain.FormatFromPath(dest)
	}
	if err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}

	logger.Step("export", format.String(), dest)
	warnings, err := conversionService.Export(cmd.Context(), format, string(data), dest)
	if err != nil {
		return err
	}
	printWarnings(cmd, warnings)
	logger.Info("wrote %s", dest)
	return nil
}
