package complyscan

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the complyscan version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("complyscan", version)
		},
	}
	rootCmd.AddCommand(cmd)
}
