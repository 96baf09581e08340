package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/lottery"
)

var adminActor string

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Operator actions: campaigns, balances and draw overrides",
}

var adminOpenCmd = &cobra.Command{
	Use:   "open <campaign>",
	Short: "Create a campaign with its budget pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		budget, _ := cmd.Flags().GetInt64("budget")
		return withService(func(svc *lottery.Service) error {
			return svc.OpenCampaign(cmd.Context(), args[0], name, budget, adminActor)
		})
	},
}

var adminTopUpCmd = &cobra.Command{
	Use:   "topup <campaign>",
	Short: "Raise a campaign's effective budget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, _ := cmd.Flags().GetInt64("amount")
		return withService(func(svc *lottery.Service) error {
			return svc.TopUpBudget(cmd.Context(), args[0], amount, adminActor)
		})
	},
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant <user>",
	Short: "Credit or debit a user's points balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, _ := cmd.Flags().GetInt64("points")
		return withService(func(svc *lottery.Service) error {
			return svc.GrantPoints(cmd.Context(), args[0], points, adminActor)
		})
	},
}

var adminForceWinCmd = &cobra.Command{
	Use:   "force-win <campaign> <user>",
	Short: "Force the user's next draw to win",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, _ := cmd.Flags().GetString("tier")
		return withService(func(svc *lottery.Service) error {
			return svc.ForceWin(cmd.Context(), args[0], args[1], engine.Tier(tier), adminActor)
		})
	},
}

var adminForceLoseCmd = &cobra.Command{
	Use:   "force-lose <campaign> <user>",
	Short: "Force the user's next draw to the consolation tier",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *lottery.Service) error {
			return svc.ForceLose(cmd.Context(), args[0], args[1], adminActor)
		})
	},
}

var adminAdjustCmd = &cobra.Command{
	Use:   "adjust <campaign> <user>",
	Short: "Scale tier weights for the user's next draw",
	Long: `Queue per-tier weight multipliers for the next draw, as comma separated
"tier:multiplier" pairs, e.g. --weights "high:2.0,mid:1.5".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		weights, _ := cmd.Flags().GetString("weights")
		return withService(func(svc *lottery.Service) error {
			return svc.AdjustProbability(cmd.Context(), args[0], args[1], weights, adminActor)
		})
	},
}

var adminQueuePrizeCmd = &cobra.Command{
	Use:   "queue-prize <campaign> <user>",
	Short: "Queue a specific prize for the user's next draw",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prizeID, _ := cmd.Flags().GetString("prize")
		return withService(func(svc *lottery.Service) error {
			return svc.QueuePrize(cmd.Context(), args[0], args[1], prizeID, adminActor)
		})
	},
}

var adminClearCmd = &cobra.Command{
	Use:   "clear <campaign> <user>",
	Short: "Drop the user's pending overrides",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *lottery.Service) error {
			n, err := svc.ClearUserSettings(cmd.Context(), args[0], args[1], adminActor)
			if err != nil {
				return err
			}
			fmt.Printf("dropped %d pending override(s)\n", n)
			return nil
		})
	},
}

var adminAuditCmd = &cobra.Command{
	Use:   "audit <campaign>",
	Short: "Print the campaign's audit trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *lottery.Service) error {
			recs, err := svc.Audit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Printf("%s  %-18s %-12s %-10s %s\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.Action, r.UserID, r.Actor, r.Detail)
			}
			return nil
		})
	},
}

func init() {
	adminCmd.PersistentFlags().StringVar(&adminActor, "actor", "cli", "actor recorded in the audit trail")

	adminOpenCmd.Flags().String("name", "", "campaign display name")
	adminOpenCmd.Flags().Int64("budget", 0, "initial budget pool (required)")
	_ = adminOpenCmd.MarkFlagRequired("budget")

	adminTopUpCmd.Flags().Int64("amount", 0, "amount to add (required)")
	_ = adminTopUpCmd.MarkFlagRequired("amount")

	adminGrantCmd.Flags().Int64("points", 0, "points delta, negative to debit (required)")
	_ = adminGrantCmd.MarkFlagRequired("points")

	adminForceWinCmd.Flags().String("tier", "", "forced tier, defaults to high")

	adminAdjustCmd.Flags().String("weights", "", "tier:multiplier pairs (required)")
	_ = adminAdjustCmd.MarkFlagRequired("weights")

	adminQueuePrizeCmd.Flags().String("prize", "", "catalog prize id (required)")
	_ = adminQueuePrizeCmd.MarkFlagRequired("prize")

	adminCmd.AddCommand(adminOpenCmd, adminTopUpCmd, adminGrantCmd,
		adminForceWinCmd, adminForceLoseCmd, adminAdjustCmd,
		adminQueuePrizeCmd, adminClearCmd, adminAuditCmd)
	rootCmd.AddCommand(adminCmd)
}
