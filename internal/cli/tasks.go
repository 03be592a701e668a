package cli

import (
	"github.com/spf13/cobra"

	"scribe/internal/tasks"
	"scribe/internal/tasks/converter"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect the task catalog",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

func init() {
	tasksCmd.AddCommand(tasksListCmd)
	rootCmd.AddCommand(tasksCmd)
}

func runTasksList(cmd *cobra.Command, _ []string) error {
	catalog, err := tasks.NewCatalog(cfg.TaskCatalog, converter.NewRegistry(), logger)
	if err != nil {
		return err
	}

	list := catalog.List()
	if len(list) == 0 {
		cmd.Println("No tasks found")
		return nil
	}

	for i := range list {
		status := "draft"
		if list[i].Published {
			status = "published"
		}
		cmd.Printf("  %s\t%s\t%s\n", list[i].ID, list[i].Title, status)
	}
	cmd.Printf("\nTotal: %d tasks\n", len(list))
	return nil
}
