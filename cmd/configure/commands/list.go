package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/courseflix/courseflix-api/internal/config"
	"github.com/courseflix/courseflix-api/internal/database"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all database-backed configuration",
		Long:  "Show the current CORS and rate limit configuration stored in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			ctx := context.Background()

			corsRepo := database.NewCorsConfigRepository(db)
			corsCfg, err := corsRepo.Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to get cors config: %w", err)
			}
			if corsCfg == nil {
				fmt.Println("CORS: not configured (falling back to FRONTEND_URL)")
			} else {
				fmt.Println("CORS:")
				fmt.Printf("  Allowed origins: %s\n", corsCfg.AllowedOrigins)
				fmt.Printf("  Allow credentials: %v\n", corsCfg.AllowCredentials)
				fmt.Printf("  Max-Age: %d\n", corsCfg.MaxAge)
			}

			ratelimitRepo := database.NewRatelimitConfigRepository(db)
			rlCfg, err := ratelimitRepo.Get(ctx)
			if err != nil {
				return fmt.Errorf("failed to get ratelimit config: %w", err)
			}
			if rlCfg == nil {
				fmt.Println("Rate limit: not configured (using default)")
			} else {
				fmt.Printf("Rate limit: %s\n", rlCfg.Rate)
			}

			return nil
		},
	}

	return cmd
}
