package cmd

import (
	"clausecheck/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var resultsCmd = &cobra.Command{
	Use:   "results [contract_id]",
	Short: "List evaluation results for a contract",
	Long:  `List the stored evaluation results for a contract with a per-outcome summary. Each (contract, rule) pair keeps only its latest result.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(viper.GetString("url"))
		resp, err := client.ContractResults(args[0])
		if err != nil {
			cmd.Printf("Failed to get results: %v\n", err)
			return
		}

		printResults(cmd, resp.Results)
		printSummary(cmd, resp.Summary)
	},
}

func printResults(cmd *cobra.Command, results []api.ResultResponse) {
	if len(results) == 0 {
		cmd.Println("No results found")
		return
	}

	for _, result := range results {
		cmd.Printf("%s %s%s%s %s[%s]%s", outcomeIcon(result.Outcome),
			colorBold, result.RuleName, colorReset,
			severityColor(result.RuleSeverity), result.RuleSeverity, colorReset)
		if result.Stale {
			cmd.Printf(" %s(stale)%s", colorYellow, colorReset)
		}
		cmd.Println()
		cmd.Printf("  %sOutcome:%s    %s (confidence %.2f)\n", colorDim, colorReset, result.Outcome, result.Confidence)
		cmd.Printf("  %sExplained:%s  %s\n", colorDim, colorReset, result.Explanation)
		for _, quote := range result.Evidence {
			cmd.Printf("  %s>%s %s\n", colorDim, colorReset, quote)
		}
		cmd.Println()
	}
}

func printSummary(cmd *cobra.Command, summary api.SummaryResponse) {
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sTotal:%s %d  %sPass:%s %d  %sFail:%s %d  %sPartial:%s %d  %sN/A:%s %d\n",
		colorDim, colorReset, summary.Total,
		colorGreen, colorReset, summary.Pass,
		colorRed, colorReset, summary.Fail,
		colorYellow, colorReset, summary.Partial,
		colorDim, colorReset, summary.NotApplicable)
	cmd.Printf("%sPass rate:%s %.0f%%\n", colorDim, colorReset, summary.PassRate*100)

	if len(summary.FailuresBySeverity) > 0 {
		cmd.Printf("%sFailures by severity:%s", colorDim, colorReset)
		for _, severity := range []string{"critical", "high", "medium", "low"} {
			if n, ok := summary.FailuresBySeverity[severity]; ok {
				cmd.Printf(" %s=%d", severity, n)
			}
		}
		cmd.Println()
	}
}

func outcomeIcon(outcome string) string {
	switch outcome {
	case "pass":
		return colorGreen + "✓" + colorReset
	case "fail":
		return colorRed + "✗" + colorReset
	case "partial":
		return colorYellow + "◐" + colorReset
	default:
		return colorDim + "•" + colorReset
	}
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}
