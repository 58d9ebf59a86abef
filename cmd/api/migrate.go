package main

import (
	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/db/queries"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create any missing database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.InitDB(cfg.DatabaseURL); err != nil {
			return err
		}
		defer db.CloseDB()
		return db.Migrate(cmd.Context(), db.DB)
	},
}

var seedAvatarsCmd = &cobra.Command{
	Use:   "seed-avatars",
	Short: "Install the built-in avatar catalog if no avatars exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.InitDB(cfg.DatabaseURL); err != nil {
			return err
		}
		defer db.CloseDB()
		if err := db.Migrate(cmd.Context(), db.DB); err != nil {
			return err
		}
		n, err := queries.NewStore(db.DB).SeedAvatars(cmd.Context())
		if err != nil {
			return err
		}
		log.Infof("Inserted %d avatars.", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedAvatarsCmd)
}
