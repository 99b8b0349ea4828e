package root

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"onchain-leveling-backend/internal/common/validation"
)

func newTasksCmd() *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the task catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			off, lim, err := validation.NormalizePage(offset, limit)
			if err != nil {
				return err
			}

			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.cleanup()

			tasks, err := e.ledger.ListTasks(ctx, off, lim)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), Muted.Render("no tasks"))
				return nil
			}

			tbl := table.New().Headers("ID", "NAME", "GOAL", "XP", "ENABLED")
			for _, t := range tasks {
				tbl.Row(
					strconv.FormatUint(t.ID, 10),
					t.Name,
					fmt.Sprintf("%d %s", t.GoalValue, t.GoalType.Unit()),
					strconv.FormatUint(uint64(t.XPReward), 10),
					strconv.FormatBool(t.Enabled),
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "first task index")
	cmd.Flags().IntVar(&limit, "limit", validation.DefaultPageLimit, "page size")
	return cmd
}
