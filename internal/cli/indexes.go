package cli

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ajcoder25/bookverse/pkg/global"
)

// NewIndexesCommand creates the indexes command.
func NewIndexesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != "mongo" {
				return errors.New("indexes requires STORE_BACKEND=mongo")
			}

			store, err := openMongo(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := global.GetDefaultTimer()
				defer cancel()
				if err := store.Disconnect(ctx); err != nil {
					log.Printf("Error disconnecting from MongoDB: %v", err)
				}
			}()

			if err := store.EnsureIndexes(cmd.Context()); err != nil {
				return fmt.Errorf("failed to ensure indexes: %w", err)
			}
			return nil
		},
	}
}
