package cli

import (
	"context"
	"fmt"

	"github.com/conversim/conversim/internal/config"
	"github.com/conversim/conversim/internal/service/sqlite"
)

// InitCmd creates or upgrades the embedded database schema.
type InitCmd struct{}

func (c *InitCmd) Execute(_ []string) error {
	ctx := context.Background()
	cfg, err := config.Load(ctx, getConfigPath())
	if err != nil {
		return err
	}
	dsn, err := sqlite.New(cfg.Root).Ensure(ctx)
	if err != nil {
		return err
	}
	fmt.Println(dsn)
	return nil
}
