package cmds

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/database"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/upload"
	workererrors "github.com/keeper-project/homepage-api/internal/worker_errors"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/keeperctl/cmds")

// Swapped out by tests
var (
	loadConfig  = config.GetConfig
	openDB      = database.Open
	newUploader = upload.NewFromConfig
)

var rootCmd = &cobra.Command{
	Use:           "keeperctl",
	Short:         "Operator tasks for the keeper homepage api",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Loads the config and opens the database. Callers close the returned db.
func connect(ctx context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, workererrors.ExitErrorWrap(
			workererrors.ExitCodeConfig,
			fmt.Errorf("failed to load config: %w", err),
		)
	}
	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, workererrors.ExitErrorWrap(
			workererrors.ExitCodeDatabase,
			fmt.Errorf("failed to open database: %w", err),
		)
	}

	return cfg, db, nil
}

func closeDB(ctx context.Context, db *gorm.DB) {
	err := database.Close(db)
	if err != nil {
		logger.Logger.WarnContext(ctx, "failed to close database", "error", err)
	}
}
