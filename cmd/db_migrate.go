package cmd

import (
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/spf13/cobra"
)

const migratedAtKey = "db_migrated_at"

// command for migrating database
var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"setdb"},
	Short:   "migrate database tables",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			cmd.PrintErrln("migrate database error:", err)
			return
		}

		properties := providePropertyStore(database)
		if err := properties.Save(ctx, migratedAtKey, time.Now().Unix()); err != nil {
			cmd.PrintErrln("save migrate property error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
