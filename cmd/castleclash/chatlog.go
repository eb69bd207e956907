// Utility command for browsing the chat archive accumulated by the client.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yntha/castleclash/internal/core"
	"github.com/yntha/castleclash/internal/data"
)

var chatlogCmd = &cobra.Command{
	Use:   "chatlog",
	Short: "Prints recently archived world chat messages",
	Run:   ChatLogCommand,
}

var LimitFlag int

func ChatLogCommand(_ *cobra.Command, _ []string) {
	cfg := core.LoadConfig(ConfigFlag)

	if cfg.Database.Engine == "" {
		fmt.Println("no database engine configured; the client is not archiving chat")
		os.Exit(1)
	}

	db, err := data.Open(cfg)
	if err != nil {
		fmt.Println("error opening chat archive:", err)
		os.Exit(1)
	}

	messages, err := data.RecentChatMessages(db, LimitFlag)
	if err != nil {
		fmt.Println("error reading chat archive:", err)
		os.Exit(1)
	}

	for _, m := range messages {
		fmt.Printf("%s [%s] %s\n", m.ReceivedAt.Format("2006-01-02 15:04:05"), m.PlayerName, m.Message)
	}
}
