package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	profile "onchain-leveling-backend/internal/features/profile/service"
	progmodels "onchain-leveling-backend/internal/features/progression/models"
)

func newRegisterCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "register <name> <degen|runner>",
		Short: "Register a profile on the contract",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cosmetic, err := progmodels.ParseCosmetic(args[1])
			if err != nil {
				return err
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

			svc := profile.NewService(e.ledger, e.schedule, nil, nil, profile.Config{
				ConfirmTimeout: e.cfg.Chain.ConfirmTimeout,
				PollInterval:   e.cfg.Chain.PollInterval,
			})
			view, err := svc.Register(ctx, sub, args[0], cosmetic)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, Good.Render("registered"))
			fmt.Fprintln(out, labelValue("Address", view.Profile.Address))
			fmt.Fprintln(out, labelValue("Name", view.Profile.Name))
			fmt.Fprintln(out, labelValue("Character", view.Profile.Cosmetic))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "hex private key (default RELAYER_PRIVATE_KEY)")
	return cmd
}
