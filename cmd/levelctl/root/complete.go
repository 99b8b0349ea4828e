package root

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"onchain-leveling-backend/internal/features/completion/repository/memory"
	completion "onchain-leveling-backend/internal/features/completion/service"
	progression "onchain-leveling-backend/internal/features/progression/service"
)

func newCompleteCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Submit a task completion and wait for the ledger to confirm it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("task id must be a positive integer: %w", err)
			}

			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.cleanup()

			sub, err := e.submitter(key)
			if err != nil {
				return err
			}

			loc, _ := time.LoadLocation(e.cfg.Progression.ResetLocation)
			svc := completion.NewService(e.ledger, memory.NewGuard(), memory.NewRecords(), progression.NewResetClock(loc), completion.Config{
				ConfirmTimeout: e.cfg.Chain.ConfirmTimeout,
				PollInterval:   e.cfg.Chain.PollInterval,
			})
			svc.Start()
			defer svc.Stop()

			out := cmd.OutOrStdout()
			attempt, err := svc.Submit(ctx, sub.Address(), taskID, sub)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, labelValue("Tx", attempt.TxHash))
			fmt.Fprintln(out, labelValue("Optimistic XP", fmt.Sprintf("%d -> %d", attempt.BaselineXP, attempt.OptimisticXP)))
			fmt.Fprintln(out, Muted.Render(fmt.Sprintf("waiting up to %s for confirmation...", e.cfg.Chain.ConfirmTimeout)))

			done, err := svc.Await(ctx, attempt.ID)
			if err != nil {
				if done != nil && done.Retryable {
					fmt.Fprintln(out, Warn.Render("XP unchanged, the task can be retried"))
				}
				return err
			}

			fmt.Fprintln(out, Good.Render("confirmed"))
			fmt.Fprintln(out, labelValue("XP", done.ConfirmedXP))
			p := e.schedule.LevelFor(done.ConfirmedXP)
			fmt.Fprintln(out, labelValue("Level", p.Level))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "hex private key (default RELAYER_PRIVATE_KEY)")
	return cmd
}
