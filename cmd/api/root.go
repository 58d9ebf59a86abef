package main

import (
	"context"
	"os"

	"github.com/ASHISH26940/vidface-api/pkg/config"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vidface-api",
	Short: "VidFace API: turns scripts into narrated videos.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg != nil {
			return nil
		}
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		if cfg.Debug {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	},
	// Serve when no subcommand is given.
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	log.SetOutput(gin.DefaultWriter)
	log.SetLevel(log.InfoLevel)
	log.SetFormatter(&log.JSONFormatter{})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
