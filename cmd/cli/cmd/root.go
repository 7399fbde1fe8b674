package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "clausectl",
	Short: "Clausectl is a command line tool for interacting with the clausecheck service",
	Long: `clausectl is the command-line interface for the clausecheck compliance engine.

Clausecheck evaluates natural-language compliance rules against contract text
using an LLM backend. Evaluations run as observable, cancellable background
jobs; results are stored per (contract, rule) pair and can be listed and
summarized at any time.

Common workflows:

  Create a compliance rule:
    clausectl rules create --name "Net-30 payment" --description "Payment terms must be net 30 days or shorter" --severity high

  List active rules:
    clausectl rules list

  Evaluate a contract against all active rules:
    clausectl evaluate <contract-id>

  Check job progress:
    clausectl status <job-id>

  Cancel a running job:
    clausectl cancel <job-id>

  List a contract's results with a summary:
    clausectl results <contract-id>

  Re-evaluate contracts whose results predate a rule edit:
    clausectl stale <rule-id> --reevaluate

Configuration:
  Set the API endpoint via environment variables or a config file:
    CLAUSECHECK_URL    API endpoint (default: http://localhost:8080)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".clausectl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".clausectl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "CLAUSECHECK_VARNAME"
	viper.SetEnvPrefix("CLAUSECHECK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.clausectl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "Clausecheck Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}
