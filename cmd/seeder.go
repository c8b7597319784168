package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/resolution-tracker/internal/user"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the user directory",
	Long:  `Load units and people from a YAML fixture for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		deps, err := initializeDependencies()
		if err != nil {
			log.Fatalf("failed to init dependencies: %v", err)
		}
		defer deps.Close()

		f, err := os.Open(seedFile)
		if err != nil {
			log.Fatalf("failed to open seed file: %v", err)
		}
		defer f.Close()

		seed, err := user.ParseSeed(f)
		if err != nil {
			log.Fatalf("failed to parse seed file: %v", err)
		}

		ctx := context.Background()
		if clearData {
			err := deps.Gorm.WithContext(ctx).Exec(`TRUNCATE resolution_events, progress_updates, interactions,
				resolution_units, resolutions, users RESTART IDENTITY CASCADE`).Error
			if err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := deps.Users.ApplySeed(ctx, seed); err != nil {
			log.Fatalf("failed to seed users: %v", err)
		}

		// ids are explicit in the fixture, so move the sequence past them
		err = deps.Gorm.WithContext(ctx).
			Exec(`SELECT setval(pg_get_serial_sequence('users', 'id'), COALESCE((SELECT MAX(id) FROM users), 1))`).Error
		if err != nil {
			log.Fatalf("failed to reset user id sequence: %v", err)
		}

		fmt.Printf("Seeded %d users from %s\n", len(seed.Users), seedFile)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "db/seeds/users.yml", "YAML fixture to load")
}
