package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chriserin/vero/internal/compiler"
	"github.com/chriserin/vero/internal/config"
	"github.com/chriserin/vero/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the Vero language server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunLSP()
	},
}

func init() {
	rootCmd.AddCommand(lspCmd)
}

// RunLSP serves until the client disconnects. Settings come from the
// nearest vero.toml when there is one.
func RunLSP() error {
	opts := compiler.Options{}
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		log.Warningf("ignoring configuration: %s", err)
	} else if cfg != nil {
		opts = cfg.CompilerOptions()
	}
	return lsp.New(opts, Version).Run()
}
