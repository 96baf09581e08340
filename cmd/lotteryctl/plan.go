package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/lottery-engine/internal/prize"
)

var (
	planPoints int64
	planDraws  int
)

var planCmd = &cobra.Command{
	Use:   "plan <campaign>",
	Short: "Plan a draw purchase under the campaign's cost model",
	Long: `Compute the cheapest purchase for a target number of draws (--draws)
or the most draws a points balance can buy (--points), using the campaign's
single and bundle prices.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().Int64Var(&planPoints, "points", 0, "points available to spend")
	planCmd.Flags().IntVar(&planDraws, "draws", 0, "draws wanted")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if (planPoints > 0) == (planDraws > 0) {
		return errors.New("set exactly one of --points or --draws")
	}
	params, err := resolveParams(args[0])
	if err != nil {
		return err
	}

	var plan prize.Plan
	if planDraws > 0 {
		plan = prize.MinPointsForDraws(params.Cost, planDraws)
		if plan.TotalDraws < planDraws {
			return fmt.Errorf("no purchase reaches %d draws", planDraws)
		}
		fmt.Printf("cheapest way to %d draws:\n", planDraws)
	} else {
		plan = prize.MaxDrawsUnderPoints(params.Cost, planPoints)
		fmt.Printf("most draws under %d points:\n", planPoints)
	}

	for _, item := range plan.Items {
		fmt.Printf("  %d x %-6s @ %-5d = %d points (%d draws)\n",
			item.Qty, item.Kind, item.Unit, item.Points, item.Qty*item.Draws)
	}
	fmt.Printf("total: %d draws for %d points\n", plan.TotalDraws, plan.TotalPoints)
	return nil
}
