package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/core/ports/driving"
	"github.com/markbear/markbear/internal/core/services"
	"github.com/markbear/markbear/internal/logger"
)

var (
	importFormatFlag string
	importOutFlag    string
	importOutDirFlag string
)

var importCmd = &cobra.Command{
	Use:   "import <file> [file...]",
	Short: "Convert documents to Markdown",
	Long: `Import converts one or more documents to canonical Markdown.

The source format is inferred from each file's extension unless --format
is given. A single file prints to stdout (or --output); multiple files
are converted concurrently and written as .md siblings of each source,
or into --out-dir when given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFormatFlag, "format", "f", "", "source format (docx, xlsx, pptx, pdf)")
	importCmd.Flags().StringVarP(&importOutFlag, "output", "o", "", "write Markdown to this file instead of stdout")
	importCmd.Flags().StringVar(&importOutDirFlag, "out-dir", "", "directory for converted files (multi-file mode)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return importOne(cmd, args[0])
	}
	return importMany(cmd, args)
}

// sourceFormat resolves the format for one source path, preferring the
// --format flag over the file extension.
func sourceFormat(path string) (domain.Format, error) {
	if importFormatFlag != "" {
		return domain.ParseFormat(importFormatFlag)
	}
	return domain.FormatFromPath(path)
}

func importOne(cmd *cobra.Command, path string) error {
	format, err := sourceFormat(path)
	if err != nil {
		return err
	}
	logger.Step("import", format.String(), path)

	markdown, warnings, err := conversionService.Import(cmd.Context(), format, path)
	if err != nil {
		return err
	}
	printWarnings(cmd, warnings)

	if importOutFlag != "" {
		if err := os.WriteFile(importOutFlag, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", importOutFlag, err)
		}
		logger.Info("wrote %s", importOutFlag)
		return nil
	}
	cmd.Print(markdown)
	return nil
}

// markdownDest swaps the source extension for .md, placing the result in
// dir when given and next to the source otherwise.
func markdownDest(src, dir string) string {
	if dir == "" {
		dir = filepath.Dir(src)
	}
	base := filepath.Base(src)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".md"
	return filepath.Join(dir, base)
}

func importMany(cmd *cobra.Command, paths []string) error {
	if importOutDirFlag != "" {
		if err := os.MkdirAll(importOutDirFlag, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", importOutDirFlag, err)
		}
	}

	dispatcher := services.NewDispatch(conversionService, workerCount())
	dispatcher.Start()
	defer dispatcher.Stop()

	type pending struct {
		path    string
		results <-chan driving.Result
	}
	queue := make([]pending, 0, len(paths))

	for _, path := range paths {
		format, err := sourceFormat(path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			continue
		}
		logger.Step("import", format.String(), path)
		_, results, err := dispatcher.Submit(cmd.Context(), driving.Job{
			Direction:  domain.DirectionImport,
			Format:     format,
			SourcePath: path,
		})
		if err != nil {
			return err
		}
		queue = append(queue, pending{path: path, results: results})
	}

	var failed int
	for _, p := range queue {
		res := <-p.results
		if res.Err != nil {
			cmd.PrintErrf("%s: %v\n", p.path, res.Err)
			failed++
			continue
		}
		printWarnings(cmd, res.Warnings)

		dest := markdownDest(p.path, importOutDirFlag)
		if err := os.WriteFile(dest, []byte(res.Markdown), 0o644); err != nil {
			cmd.PrintErrf("%s: %v\n", dest, err)
			failed++
			continue
		}
		logger.Info("wrote %s", dest)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(paths))
	}
	return nil
}

// printWarnings reports lossy-mapping warnings on stderr so stdout stays
// clean Markdown.
func printWarnings(cmd *cobra.Command, warnings []domain.Warning) {
	for _, w := range warnings {
		cmd.PrintErrf("warning: %s\n", w)
	}
}
