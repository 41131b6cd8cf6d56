package complyscan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/complyscan/complyscan/internal/rules"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules [file]",
		Short: "Validate a compliance rules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ruleSet, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}
			issues := rules.ValidateAll(ruleSet)
			if len(issues) == 0 {
				fmt.Printf("%d rules, all valid\n", len(ruleSet))
				return nil
			}
			for id, list := range issues {
				for _, issue := range list {
					fmt.Printf("%s: %s\n", id, issue)
				}
			}
			return fmt.Errorf("%d of %d rules have issues", len(issues), len(ruleSet))
		},
	}
	rootCmd.AddCommand(cmd)
}
