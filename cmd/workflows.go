// File: cmd/workflows.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/mimic-cli/internal/observability"
	"github.com/xkilldash9x/mimic-cli/internal/store"
)

// newWorkflowsCmd creates the `workflows` command group.
func newWorkflowsCmd() *cobra.Command {
	workflowsCmd := &cobra.Command{
		Use:   "workflows",
		Short: "Manages saved workflows",
	}
	workflowsCmd.AddCommand(newWorkflowsListCmd())
	workflowsCmd.AddCommand(newWorkflowsDeleteCmd())
	workflowsCmd.AddCommand(newWorkflowsRenameCmd())
	return workflowsCmd
}

func newWorkflowsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists saved workflows, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(appConfig.Storage.Path, observability.GetLogger())
			if err != nil {
				return fmt.Errorf("opening workflow store: %w", err)
			}
			defer st.Close()

			list, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No workflows recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED")
			for _, wf := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					wf.ID, wf.Name, wf.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newWorkflowsRenameCmd() *cobra.Command {
	var description string

	renameCmd := &cobra.Command{
		Use:   "rename <workflow-id> <name>",
		Short: "Renames a saved workflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(appConfig.Storage.Path, observability.GetLogger())
			if err != nil {
				return fmt.Errorf("opening workflow store: %w", err)
			}
			defer st.Close()

			id, name := args[0], args[1]
			if description == "" {
				wf, err := st.Get(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("loading workflow %s: %w", id, err)
				}
				description = wf.Description
			}
			if err := st.Rename(cmd.Context(), id, name, description); err != nil {
				return fmt.Errorf("renaming workflow %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed workflow %s to %q\n", id, name)
			return nil
		},
	}
	renameCmd.Flags().StringVar(&description, "description", "", "replace the workflow description as well")
	return renameCmd
}

func newWorkflowsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <workflow-id>",
		Short: "Deletes a saved workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(appConfig.Storage.Path, observability.GetLogger())
			if err != nil {
				return fmt.Errorf("opening workflow store: %w", err)
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting workflow %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted workflow %s\n", args[0])
			return nil
		},
	}
}
