package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the signalbt CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("signalbt version %s\n", version)
		fmt.Println("Signal driven backtester for daily price series")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
