package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajcoder25/bookverse/pkg/global"
	"github.com/ajcoder25/bookverse/pkg/redis"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the catalog cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Remove every cached catalog response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.RedisAddress == "" {
				return errors.New("REDIS_ADDRESS is not set in environment variables")
			}

			client, err := openRedis(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := global.GetDefaultTimerFrom(cmd.Context())
			defer cancel()
			n, err := redis.NewCatalogCache(client).Flush(ctx)
			if err != nil {
				return fmt.Errorf("flush catalog cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached catalog entries\n", n)
			return nil
		},
	})

	return cmd
}
