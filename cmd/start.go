package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relaydaemon/ffwdd/internal/config"
	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/supervisor"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the forwarding daemon",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if cfg.Control.Socket == "" {
		cfg.Control.Socket = socketPath
	}

	log.Init(&cfg.Log)
	logger := log.GetLogger()

	sup := supervisor.New(cfg, logger)
	if err := sup.Start(); err != nil {
		return err
	}
	logger.Info("ffwdd started")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	<-signals

	logger.Info("ffwdd shutting down")
	sup.Stop()
	return nil
}
