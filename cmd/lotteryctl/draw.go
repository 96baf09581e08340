package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xtding233/lottery-engine/internal/lottery"
)

var (
	drawUser    string
	drawCount   int
	drawRequest string
)

var drawCmd = &cobra.Command{
	Use:   "draw <campaign>",
	Short: "Run draws for a user",
	Long: `Run one or more draws as a single atomic request. Retrying with the
same --request id replays the recorded outcomes instead of drawing again.`,
	Args: cobra.ExactArgs(1),
	RunE: runDraw,
}

func init() {
	drawCmd.Flags().StringVar(&drawUser, "user", "", "user id (required)")
	drawCmd.Flags().IntVar(&drawCount, "count", 1, "draws in this request")
	drawCmd.Flags().StringVar(&drawRequest, "request", "", "idempotency key; generated when empty")
	_ = drawCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(drawCmd)
}

func runDraw(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openService()
	if err != nil {
		return err
	}
	defer cleanup()

	req := drawRequest
	if req == "" {
		req = uuid.NewString()
	}
	res, err := svc.DrawBatch(cmd.Context(), args[0], drawUser, req, drawCount)
	if err != nil {
		return err
	}
	printDrawResult(res)
	return nil
}

func printDrawResult(res lottery.DrawResult) {
	if res.Replayed {
		fmt.Printf("request %s already settled; recorded outcomes follow\n", res.RequestID)
	} else {
		fmt.Printf("request %s\n", res.RequestID)
	}
	for _, out := range res.Outcomes {
		if out.Empty() {
			fmt.Printf("  #%-3d %-8s -\n", out.Seq, out.Tier)
		} else {
			fmt.Printf("  #%-3d %-8s %s (%s, cost %d)\n", out.Seq, out.Tier, out.PrizeName, out.PrizeID, out.Cost)
		}
		for _, m := range out.Mechanisms {
			fmt.Printf("        %s: %s\n", m.Type, m.Detail)
		}
	}
	fmt.Printf("points spent %d, budget spent %d\n", res.PointsSpent, res.BudgetSpent)
}
