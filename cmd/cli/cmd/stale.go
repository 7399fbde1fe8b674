package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var staleCmd = &cobra.Command{
	Use:   "stale [rule_id]",
	Short: "List or re-evaluate stale results for a rule",
	Long: `List the evaluation results whose stored rule version predates the
rule's current version. With --reevaluate, queue a job that re-runs the rule
against every contract holding a stale result.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ruleID := args[0]
		reevaluate, _ := cmd.Flags().GetBool("reevaluate")

		client := NewClient(viper.GetString("url"))

		if reevaluate {
			resp, err := client.ReevaluateStale(ruleID)
			if err != nil {
				cmd.Printf("Failed to queue re-evaluation: %v\n", err)
				return
			}
			cmd.Printf("%s⏳%s Re-evaluation queued\n", colorYellow, colorReset)
			cmd.Printf("%sJob ID:%s %s\n", colorDim, colorReset, resp.JobID)
			return
		}

		resp, err := client.RuleResults(ruleID, true)
		if err != nil {
			cmd.Printf("Failed to get stale results: %v\n", err)
			return
		}

		if len(resp.Results) == 0 {
			cmd.Println("No stale results, all evaluations are current")
			return
		}

		cmd.Printf("%d stale result(s):\n\n", len(resp.Results))
		printResults(cmd, resp.Results)
	},
}

func init() {
	staleCmd.Flags().Bool("reevaluate", false, "Queue a re-evaluation job for stale results")

	rootCmd.AddCommand(staleCmd)
}
