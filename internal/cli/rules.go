package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/rules"
)

var rulesPath string

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect insurer rule sets",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the insurers with loaded rule sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := rules.LoadRegistry(rulesPath)
		if err != nil {
			return err
		}

		insurers := reg.Insurers()
		if len(insurers) == 0 {
			fmt.Printf("No rule sets found in %s\n", rulesPath)
			return nil
		}
		for _, name := range insurers {
			rs, err := reg.Get(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-24s %d rules\n", name, len(rs.Rules))
		}
		return nil
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every rule set in the rules directory",
	Long: `Validate parses every rule set and checks that each rule has an id,
a field, a severity in 1..5, and a well-formed constraint. Errors name the
offending file and rule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := rules.LoadRegistry(rulesPath)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %d rule set(s) valid\n", len(reg.Insurers()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)

	rulesCmd.PersistentFlags().StringVar(&rulesPath, "rules-dir", "configs/rules", "directory of insurer rule sets")
}
