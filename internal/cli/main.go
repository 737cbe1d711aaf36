package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:   "reelpress [input-directory]",
		Short: "Batch-render folders of raw camera clips into final cuts",
		Long: `reelpress scans a directory for raw camera clips, sorts them into
per-shoot groups, and renders each group into a cropped, trimmed,
previewable final file. Progress lives on disk as artifacts, so an
interrupted run picks up where it left off.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return run(cmd, dir)
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().BoolP("debug", "d", false, "Enable debug logging")
	root.Flags().Bool("filter-audio", false, "Apply loudness normalization to final audio")
	root.Flags().Float64("preview", 0, "Force preview rendering, optionally overriding its length in seconds")
	root.Flags().Lookup("preview").NoOptDefVal = "-1"
	root.Flags().Bool("skip-normalization", false, "Stream-copy audio instead of re-encoding it")
	root.Flags().Bool("dry-run", false, "Log planned work without moving files or encoding")
	root.Flags().Bool("parallel", false, "Process groups concurrently")
	root.Flags().Bool("no-edit", false, "Skip the interactive group config editor")
	root.Flags().String("log-format", "", "Log output format: console or json")

	// Power-user override for the app config location.
	root.Flags().String("config", "", "Path to the application config file")
	_ = root.Flags().MarkHidden("config")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
