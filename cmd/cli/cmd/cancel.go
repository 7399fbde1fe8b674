package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [job_id]",
	Short: "Cancel an evaluation job",
	Long: `Request cancellation of an evaluation job. Pending jobs are cancelled
immediately; running jobs stop after their current rule batch, keeping any
results already produced.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(viper.GetString("url"))
		job, err := client.CancelJob(args[0])
		if err != nil {
			cmd.Printf("Failed to cancel job: %v\n", err)
			return
		}

		if job.Status == "cancelled" {
			cmd.Printf("%s⊘%s Job cancelled\n", colorRed, colorReset)
		} else {
			cmd.Printf("%s⏳%s Cancellation requested, job will stop after its current batch\n", colorYellow, colorReset)
		}
		cmd.Printf("%sStatus:%s %s\n", colorDim, colorReset, colorizeStatus(job.Status))
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
