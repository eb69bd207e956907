package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ConfigFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "castleclash",
		Short: "Castle Clash headless client and related tools",
		Run:   ClientCommand,
	}
	rootCmd.PersistentFlags().StringVarP(&ConfigFlag, "config", "c", "./", "Path to the directory containing the config file")

	genconfigCmd.Flags().StringVarP(&OutputDirFlag, "output", "o", "./", "Directory to write the generated config file to")
	chatlogCmd.Flags().IntVarP(&LimitFlag, "limit", "n", 50, "Maximum number of chat messages to print")

	rootCmd.AddCommand(genconfigCmd)
	rootCmd.AddCommand(chatlogCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
	}
}
