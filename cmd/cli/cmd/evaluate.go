package cmd

import (
	"encoding/json"
	"net/http"

	"clausecheck/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [contract_id]",
	Short: "Evaluate a contract against compliance rules",
	Long: `Start an evaluation of a contract. By default all active rules are
evaluated asynchronously and a job ID is returned for polling. With --sync the
server runs small evaluations inline and returns results directly; --rules
restricts the evaluation to specific rule IDs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		contractID := args[0]
		sync, _ := cmd.Flags().GetBool("sync")
		ruleIDs, _ := cmd.Flags().GetStringSlice("rules")

		req := api.EvaluateContractRequest{RuleIDs: ruleIDs}
		if sync {
			async := false
			req.Async = &async
		}

		client := NewClient(viper.GetString("url"))
		body, status, err := client.EvaluateContract(contractID, req)
		if err != nil {
			cmd.Printf("Failed to start evaluation: %v\n", err)
			return
		}

		if status == http.StatusOK {
			// Sync path: the body carries results and a summary.
			var resp api.EvaluateSyncResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				cmd.Printf("Failed to parse response: %v\n", err)
				return
			}
			printResults(cmd, resp.Results)
			printSummary(cmd, resp.Summary)
			return
		}

		var resp api.EvaluateResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			cmd.Printf("Failed to parse response: %v\n", err)
			return
		}
		cmd.Printf("%s⏳%s Evaluation queued\n", colorYellow, colorReset)
		cmd.Printf("%sJob ID:%s %s\n", colorDim, colorReset, resp.JobID)
		cmd.Printf("Run 'clausectl status %s' to track progress\n", resp.JobID)
	},
}

func init() {
	evaluateCmd.Flags().Bool("sync", false, "Wait for results inline (small rule sets only)")
	evaluateCmd.Flags().StringSlice("rules", nil, "Rule IDs to evaluate (default: all active rules)")

	rootCmd.AddCommand(evaluateCmd)
}
