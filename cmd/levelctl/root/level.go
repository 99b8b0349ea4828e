package root

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	progression "onchain-leveling-backend/internal/features/progression/service"
)

func newLevelCmd() *cobra.Command {
	var (
		legacy     bool
		thresholds string
	)

	cmd := &cobra.Command{
		Use:   "level <xp>",
		Short: "Compute level progress for an XP total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xp, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("xp must be a non-negative integer: %w", err)
			}

			out := cmd.OutOrStdout()
			if legacy {
				p := progression.LegacyFixedStepLevel(xp)
				fmt.Fprintln(out, Warn.Render("legacy fixed-step formula, not what the contract uses"))
				printProgress(cmd, xp, p.Level, p.XPIntoLevel, p.XPToNextLevel)
				return nil
			}

			schedule, err := scheduleFrom(thresholds)
			if err != nil {
				return err
			}
			p := schedule.LevelFor(xp)
			printProgress(cmd, xp, p.Level, p.XPIntoLevel, p.XPToNextLevel)
			return nil
		},
	}

	cmd.Flags().BoolVar(&legacy, "legacy", false, "use the old 300 XP per level formula")
	cmd.Flags().StringVar(&thresholds, "thresholds", "", "comma separated cumulative thresholds (default from config)")
	return cmd
}

func scheduleFrom(thresholds string) (*progression.Schedule, error) {
	if thresholds == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		return loadSchedule(cfg)
	}

	var values []uint64
	for _, part := range strings.Split(thresholds, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad threshold %q: %w", part, err)
		}
		values = append(values, v)
	}
	return progression.NewSchedule(values)
}

func printProgress(cmd *cobra.Command, xp, level, into, toNext uint64) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, labelValue("XP", xp))
	fmt.Fprintln(out, labelValue("Level", Good.Render(strconv.FormatUint(level, 10))))
	fmt.Fprintln(out, labelValue("Into level", into))
	fmt.Fprintln(out, labelValue("To next", toNext))
}
