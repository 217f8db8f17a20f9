package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/keeper-project/homepage-api/cmd/keeperctl/cmds"
	"github.com/keeper-project/homepage-api/internal/logger"
	otelkeeper "github.com/keeper-project/homepage-api/internal/otel"
	workererrors "github.com/keeper-project/homepage-api/internal/worker_errors"
)

var tracer = otel.Tracer("github.com/keeper-project/homepage-api/keeperctl")

func runApp(ctx context.Context) int {
	useOTLP, err := strconv.ParseBool(os.Getenv("KEEPER_LOGGING_USE_OTLP"))
	if err != nil {
		useOTLP = false
	}

	shutdown, err := otelkeeper.SetupOTelSDK(ctx, "keeperctl", useOTLP)
	if err != nil {
		logger.Logger.Warn("failed to setup otel sdk", "error", err)
	}
	defer func() {
		fail := shutdown(context.Background())
		if fail != nil {
			logger.Logger.Warn("no clean shutdown for otel", "error", fail)
		}
	}()

	extractedContext := otelkeeper.ContextFromEnv(context.Background())
	ctx, span := tracer.Start(
		ctx,
		"keeperctl",
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(extractedContext)),
	)
	defer span.End()

	err = cmds.Execute(ctx)
	if err != nil {
		logger.Logger.Error("error executing subcommands", "error", err)

		var ee workererrors.ExitError
		if errors.As(err, &ee) {
			return ee.Code
		}
		return workererrors.ExitCodeFailed
	}

	return 0
}

func main() {
	logger.InitSlog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runApp(ctx)
	stop()

	os.Exit(code)
}
