package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hookchatio/hookchat/internal/config"
	"github.com/hookchatio/hookchat/internal/db"
	"github.com/hookchatio/hookchat/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:   "hookchat",
		Short: "Webhook relay chat service",
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and queue processor",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return db.Migrate(cfg.Postgres)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
