package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	progression "onchain-leveling-backend/internal/features/progression/service"
)

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <address>",
		Short: "Show a player's profile as the contract reports it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.cleanup()

			profile, err := e.ledger.GetProfile(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, Title.Render(profile.Address))
			if !profile.Registered {
				fmt.Fprintln(out, Muted.Render("not registered"))
				return nil
			}
			fmt.Fprintln(out, labelValue("Name", profile.Name))
			fmt.Fprintln(out, labelValue("Character", profile.Cosmetic))

			p := e.schedule.LevelFor(profile.XPTotal)
			printProgress(cmd, profile.XPTotal, p.Level, p.XPIntoLevel, p.XPToNextLevel)

			next, err := e.ledger.NextLevelXP(ctx, profile.Address)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, labelValue("Contract next level at", next.NextLevelCumulative))

			if err := e.schedule.CheckAgainstChain(profile.XPTotal, profile.Level, next.NextLevelCumulative); err != nil {
				var drift *progression.ScheduleDriftError
				if !errors.As(err, &drift) {
					return err
				}
				fmt.Fprintln(out, Warn.Render(drift.Error()))
			}
			return nil
		},
	}
}
