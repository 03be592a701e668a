package cli

import (
	"github.com/spf13/cobra"

	"scribe/internal/artifacts"
)

var pathsCmd = &cobra.Command{
	Use:   "paths [contest] [task] [username]",
	Short: "Show where a task's artifacts are stored",
	Args:  cobra.ExactArgs(3),
	RunE:  runPaths,
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}

func runPaths(cmd *cobra.Command, args []string) error {
	layout := artifacts.NewLayout(cfg.MediaRoot, cfg.CanonicalOwner)

	kinds := []artifacts.Kind{
		artifacts.KindDraftTask,
		artifacts.KindDraftReleased,
		artifacts.KindFinalPDF,
		artifacts.KindFinalMarkdown,
	}
	for _, kind := range kinds {
		path, err := layout.Path(args[0], args[1], kind, args[2])
		if err != nil {
			return err
		}
		cmd.Printf("%-15s %s\n", kind, path)
	}
	return nil
}
