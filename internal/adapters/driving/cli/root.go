// Package cli implements the command-line adapter. Commands translate
// arguments into calls on the driving ports and print results; all
// conversion logic stays in the core services.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/markbear/markbear/internal/adapters/driven/config/file"
	"github.com/markbear/markbear/internal/converters/docx"
	"github.com/markbear/markbear/internal/converters/pdf"
	"github.com/markbear/markbear/internal/converters/pptx"
	"github.com/markbear/markbear/internal/converters/xlsx"
	"github.com/markbear/markbear/internal/core/ports/driven"
	"github.com/markbear/markbear/internal/core/ports/driving"
	"github.com/markbear/markbear/internal/core/services"
	"github.com/markbear/markbear/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verboseFlag   bool
	configDirFlag string
)

// Services are initialised once per invocation; tests inject fakes before
// executing a command.
var (
	conversionService driving.ConversionService
	configStore       driven.ConfigStore
)

var rootCmd = &cobra.Command{
	Use:   "markbear",
	Short: "Convert documents to and from Markdown",
	Long: `markbear converts between Markdown and office or print formats
(docx, xlsx, pptx, pdf) through a common document model.

Imports produce canonical Markdown on stdout or into a file; exports read
Markdown and write the target format. Lossy mappings are reported as
warnings on stderr, never silently.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config", "", "config directory (default ~/.markbear)")
}

func initServices(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	if configStore == nil {
		store, err := file.NewConfigStore(configDirFlag)
		if err != nil {
			return err
		}
		configStore = store
	}

	if conversionService == nil {
		pdfConv := pdf.New()
		if ratio := configStore.GetFloat("pdf.heading_ratio"); ratio > 1 {
			pdfConv.HeadingRatio = ratio
			logger.Debug("pdf heading ratio set to %.2f", ratio)
		}
		conversionService = services.NewConversion(docx.New(), xlsx.New(), pptx.New(), pdfConv)
	}
	return nil
}

// workerCount reads the configured dispatcher pool size.
func workerCount() int {
	if n := configStore.GetInt("workers"); n > 0 {
		return n
	}
	return services.DefaultWorkers
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
