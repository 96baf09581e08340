package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtding233/lottery-engine/internal/lottery"
	"github.com/xtding233/lottery-engine/internal/rollout"
)

var (
	statusUser string
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status <campaign>",
	Short: "Show campaign state and active tuning",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusUser, "user", "", "also show this user's state")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "raw JSON output")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openService()
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := svc.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if statusJSON {
		if err := printJSON(statusPayload(st)); err != nil {
			return err
		}
	} else {
		printStatus(st)
	}

	if statusUser == "" {
		return nil
	}
	us, err := svc.UserStatus(cmd.Context(), args[0], statusUser)
	if err != nil {
		return err
	}
	if statusJSON {
		return printJSON(us)
	}
	fmt.Printf("\nuser %s\n", us.User.ID)
	fmt.Printf("  points          %d\n", us.User.Points)
	fmt.Printf("  empty streak    %d\n", us.Experience.EmptyStreak)
	fmt.Printf("  recent highs    %d\n", us.Experience.RecentHighCount)
	fmt.Printf("  cooldown        %d\n", us.Experience.AntiHighCooldown)
	for _, p := range us.Pending {
		fmt.Printf("  pending         %s %s (by %s)\n", p.Kind, p.Value, p.Actor)
	}
	return nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printStatus(st lottery.CampaignStatus) {
	c := st.Campaign
	fmt.Printf("campaign %s (%s)\n", c.ID, c.Name)
	fmt.Printf("  budget          %d / %d\n", c.EffectiveBudget, c.InitialBudget)
	fmt.Printf("  window          %s\n", formatWindow(st.Start, st.End, st.Open))
	fmt.Printf("  draws           %d (%d empty, rate %.3f)\n",
		st.Stats.DrawCount, st.Stats.EmptyCount, st.Stats.EmptyRate())
	fmt.Printf("  base weights    %v\n", st.Tuning.BaseWeights)
	fmt.Printf("  pity            soft %d steps, hard at %d\n",
		len(st.Tuning.Pity.Soft), st.Tuning.Pity.HardStreak)
	fmt.Printf("  anti-empty at   %d\n", st.Tuning.AntiEmptyThreshold)
	printRollout()
	fmt.Println("  prizes:")
	for _, p := range st.Prizes {
		stock := fmt.Sprintf("%d left", p.Stock)
		if p.Stock < 0 {
			stock = "unlimited"
		}
		fmt.Printf("    %-12s %-8s cost %-6d %s\n", p.ID, p.Tier, p.Cost, stock)
	}
}

// statusPayload attaches the process-wide rollout summary to the campaign
// view so the JSON output matches what the text printer shows.
func statusPayload(st lottery.CampaignStatus) any {
	if gate == nil {
		return st
	}
	return struct {
		lottery.CampaignStatus
		Rollout map[string]rollout.FeatureSummary `json:"rollout"`
	}{st, gate.Summary()}
}

func printRollout() {
	if gate == nil {
		return
	}
	sum := gate.Summary()
	if len(sum) == 0 {
		return
	}
	names := make([]string, 0, len(sum))
	for name := range sum {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("  rollout:")
	for _, name := range names {
		fs := sum[name]
		state := "on"
		if !fs.GlobalEnabled {
			state = "off"
		}
		fmt.Printf("    %-12s %-3s %3d%%", name, state, fs.Percentage)
		if fs.WhitelistedUsers > 0 || fs.WhitelistedCampaigns > 0 {
			fmt.Printf("  (%d users, %d campaigns whitelisted)",
				fs.WhitelistedUsers, fs.WhitelistedCampaigns)
		}
		fmt.Println()
	}
}

func formatWindow(start, end time.Time, open bool) string {
	state := "closed"
	if open {
		state = "open"
	}
	if start.IsZero() && end.IsZero() {
		return "always " + state
	}
	return fmt.Sprintf("%s .. %s (%s)",
		start.Format(time.RFC3339), end.Format(time.RFC3339), state)
}
