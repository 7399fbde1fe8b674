package cmd

import (
	"clausecheck/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage compliance rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active compliance rules",
	Long:  `List all active compliance rules, optionally filtered by category.`,
	Run: func(cmd *cobra.Command, args []string) {
		category, _ := cmd.Flags().GetString("category")

		client := NewClient(viper.GetString("url"))
		rules, err := client.ListRules(category)
		if err != nil {
			cmd.Printf("Failed to list rules: %v\n", err)
			return
		}

		if len(rules) == 0 {
			cmd.Println("No active rules found")
			return
		}

		for _, rule := range rules {
			cmd.Printf("%s%s%s  %s[%s]%s\n", colorBold, rule.Name, colorReset,
				severityColor(rule.Severity), rule.Severity, colorReset)
			cmd.Printf("  %sID:%s       %s\n", colorDim, colorReset, rule.ID)
			if rule.Category != "" {
				cmd.Printf("  %sCategory:%s %s\n", colorDim, colorReset, rule.Category)
			}
			cmd.Printf("  %s\n\n", rule.Description)
		}
	},
}

var rulesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new compliance rule",
	Long:  `Create a compliance rule from a name, a natural-language description, and a severity (low, medium, high, critical).`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		severity, _ := cmd.Flags().GetString("severity")
		category, _ := cmd.Flags().GetString("category")

		if name == "" || description == "" || severity == "" {
			cmd.Println("--name, --description and --severity are required")
			return
		}

		client := NewClient(viper.GetString("url"))
		rule, err := client.CreateRule(api.CreateRuleRequest{
			Name:        name,
			Description: description,
			Severity:    severity,
			Category:    category,
		})
		if err != nil {
			cmd.Printf("Failed to create rule: %v\n", err)
			return
		}

		cmd.Printf("%s✓%s Rule created\n", colorGreen, colorReset)
		cmd.Printf("%sID:%s %s\n", colorDim, colorReset, rule.ID)
	},
}

func severityColor(severity string) string {
	switch severity {
	case "critical":
		return colorRed
	case "high":
		return colorRed
	case "medium":
		return colorYellow
	default:
		return colorCyan
	}
}

func init() {
	rulesListCmd.Flags().String("category", "", "Filter rules by category")

	rulesCreateCmd.Flags().String("name", "", "Rule name")
	rulesCreateCmd.Flags().String("description", "", "Natural-language rule description")
	rulesCreateCmd.Flags().String("severity", "", "Severity: low, medium, high or critical")
	rulesCreateCmd.Flags().String("category", "", "Optional category")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCreateCmd)
	rootCmd.AddCommand(rulesCmd)
}
