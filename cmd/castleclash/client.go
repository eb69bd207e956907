// The client command is the main entrypoint: it loads the config, connects
// through both handshakes, and then sits on the game server connection
// relaying world chat until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/yntha/castleclash/internal/core"
	"github.com/yntha/castleclash/internal/data"
	"github.com/yntha/castleclash/internal/debug"
	"github.com/yntha/castleclash/internal/session"
	"github.com/yntha/castleclash/internal/topology"
)

func ClientCommand(_ *cobra.Command, _ []string) {
	cfg := core.LoadConfig(ConfigFlag)
	fmt.Println("using configuration file in:", ConfigFlag)

	logger, err := core.NewLogger(cfg)
	if err != nil {
		fmt.Println("error initializing logger:", err)
		os.Exit(1)
	}

	debug.StartUtilities(logger, cfg)

	// The chat archive is optional; with no engine configured the client
	// just prints chat to the log.
	var db *gorm.DB
	if cfg.Database.Engine != "" {
		db, err = data.Open(cfg)
		if err != nil {
			logger.Errorf("error opening chat archive: %v", err)
			os.Exit(1)
		}
	}

	s, err := session.New(cfg, logger, topology.NewClient(cfg, logger), db)
	if err != nil {
		logger.Errorf("error initializing session: %v", err)
		os.Exit(1)
	}

	// Register a SIGTERM handler so that Ctrl-C shuts the session down gracefully.
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go exitHandler(cancel, c)

	if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("session ended with error: %v", err)
		os.Exit(1)
	}
}

func exitHandler(cancelFn func(), c chan os.Signal) {
	<-c
	fmt.Println("waiting to shut down gracefully...")
	cancelFn()

	// A second signal kills the process immediately.
	<-c
	fmt.Println("hard exiting (killed)")
	os.Exit(1)
}
