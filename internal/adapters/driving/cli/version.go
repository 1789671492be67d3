package cli

import (
	"github.com/spf13/cobra"

	"github.com/markbear/markbear/internal/core/domain"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the markbear version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("markbear version %s\n", version)
	},
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported document formats",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, f := range domain.Formats() {
			cmd.Println(f)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(formatsCmd)
}
