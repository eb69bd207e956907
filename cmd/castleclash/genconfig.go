// Utility command that mines a captured login packet for account
// credentials and writes a fresh config file from them. There is no
// registration flow in this client; the user id, auth key, and game id all
// have to come from a packet capture of the real client logging in.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yntha/castleclash/internal/packets"
	"github.com/yntha/castleclash/internal/wire"
)

var genconfigCmd = &cobra.Command{
	Use:   "genconfig [capture]",
	Short: "Generates a config file from a captured login packet",
	Run:   GenConfigCommand,
	Args:  cobra.ExactArgs(1),
}

var OutputDirFlag string

func GenConfigCommand(_ *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Println("error reading capture:", err)
		os.Exit(1)
	}

	header, err := packets.ParseHeader(data)
	if err != nil {
		fmt.Println("error parsing capture:", err)
		os.Exit(1)
	}
	if header.ID != packets.CapturedLoginType {
		fmt.Printf("capture contains 0x%04x, expected a 0x%04x login packet\n",
			header.ID, packets.CapturedLoginType)
		os.Exit(1)
	}

	login, err := wire.Decode(packets.CapturedLoginLayout(), data[packets.HeaderSize:])
	if err != nil {
		fmt.Println("error decoding login packet:", err)
		os.Exit(1)
	}

	v := viper.New()
	v.Set("log_level", "info")
	v.Set("client.version", login.Uint("client_version"))
	v.Set("client.version_string", "3.8.9")
	v.Set("client.version_override", true)
	v.Set("client.user_id", login.Uint("user_id"))
	v.Set("client.auth_key", login.String("auth_key"))
	v.Set("client.game_id", login.Uint("game_id"))
	// The client signature sent on the game server handshake matches the
	// numeric version in every capture seen so far.
	v.Set("client.sign", login.Uint("client_version"))
	v.Set("client.language_id", 2)
	v.Set("server_config.url", "")
	v.Set("server_config.version", 3)
	v.Set("database.engine", "sqlite")
	v.Set("database.filename", "castleclash.db")

	outputPath := filepath.Join(OutputDirFlag, "config.yaml")
	if err := v.WriteConfigAs(outputPath); err != nil {
		fmt.Println("error writing config:", err)
		os.Exit(1)
	}

	fmt.Println("config generated at", outputPath)
	fmt.Println("note: server_config.url is empty and must be filled in before connecting")
}
