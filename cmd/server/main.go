package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/cmd/server/internal/i18n"
	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/cmd/server/internal/routes"
	"github.com/keeper-project/homepage-api/cmd/server/internal/routes/admin"
	routesv1 "github.com/keeper-project/homepage-api/cmd/server/internal/routes/v1"
	"github.com/keeper-project/homepage-api/cmd/server/internal/token"
	"github.com/keeper-project/homepage-api/internal/about"
	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/ctf"
	"github.com/keeper-project/homepage-api/internal/database"
	"github.com/keeper-project/homepage-api/internal/library"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/mail"
	"github.com/keeper-project/homepage-api/internal/member"
	"github.com/keeper-project/homepage-api/internal/migrations"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/otel"
	"github.com/keeper-project/homepage-api/internal/posting"
	"github.com/keeper-project/homepage-api/internal/upload"
)

const name string = "github.com/keeper-project/homepage-api/cmd/server"

var tracer = otellib.Tracer(name)

type server struct {
	router       *echo.Echo
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	otelShutdown func(context.Context) error
}

// Everything the routers need, split out so HTTP tests can build the same router
type services struct {
	ctf     *ctf.Service
	library *library.Service
	posting *posting.Service
	about   *about.Service
	members *member.Service
	tokens  *token.Issuer
}

func newMailer(cfg *config.MailConfig) mail.Mailer {
	if cfg.Dev || cfg.RelayURL == "" {
		return mail.NewLogMailer(logger.Component("mail"))
	}

	return mail.NewRelayMailer(mail.NewRetryClient(), cfg.RelayURL, cfg.From)
}

func buildRouter(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	svc services,
	l *slog.Logger,
) (*echo.Echo, error) {
	catalog, err := i18n.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load message catalog: %w", err)
	}

	e, err := routes.BuildEcho(l, catalog)
	if err != nil {
		return nil, fmt.Errorf("error building router: %w", err)
	}

	middlewareHandler := servermiddleware.Handler{DB: db, Tokens: svc.tokens}

	v1Handler := routesv1.NewHandler(
		svc.members,
		svc.ctf,
		svc.library,
		svc.posting,
		svc.about,
		svc.tokens,
		rdb,
		cfg.RateLimit,
	)
	v1Handler.AddRoutes(e, &middlewareHandler)

	admin.NewHandler(svc.ctf, svc.library, svc.posting, svc.about).AddRoutes(e, &middlewareHandler)

	return e, nil
}

func initServer(ctx context.Context) (*server, error) {
	server := new(server)

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server config: %w", err)
	}
	server.config = cfg

	shutdownOTel, err := otel.SetupOTelSDK(ctx, "keeper-api", cfg.Logging.UseOTLP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	defer func() {
		// Something failed to initialize, make sure everything gets flushed to the server
		if server.otelShutdown == nil {
			otelShutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Second*time.Duration(cfg.GracefulShutdownSecs),
			)
			defer cancel()

			if err = shutdownOTel(otelShutdownCtx); err != nil {
				logger.Logger.Error("failed to flush otel data", "error", err)
			}
		}
	}()

	ctx, span := tracer.Start(ctx, "initServer")
	defer span.End()

	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	db, err := database.Open(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open database")
		return nil, err
	}

	span.AddEvent("initialized database connection")

	err = migrations.Up(ctx, db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to preform database migrations")
		return nil, fmt.Errorf("failed to perform database migrations: %w", err)
	}

	span.AddEvent("migrated database to latest version")

	if err = models.LoadAdminsFromConfig(ctx, db, cfg.Admins); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load admins from config")
		return nil, fmt.Errorf("failed to load admins from config: %w", err)
	}

	span.AddEvent("loaded admins from config")

	storage, err := upload.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct uploader")
		return nil, fmt.Errorf("failed to construct uploader: %w", err)
	}

	span.AddEvent("initialized object storage")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	uploader := upload.NewRetryUploaderBackoff(storage, upload.RequestBackoff)

	svc := services{
		ctf:     ctf.New(db, uploader, cfg.CTF.Scoring, cfg.Storage.PresignTTL),
		library: library.New(db, cfg.Library),
		posting: posting.New(db, uploader, cfg.Storage.PresignTTL),
		about:   about.New(db, uploader, cfg.Storage.PresignTTL),
		members: member.New(db, member.NewRedisCodeStore(rdb, member.CodeTTL), newMailer(cfg.Mail)),
		tokens:  token.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL),
	}

	e, err := buildRouter(cfg, db, rdb, svc, logger.Logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error building router")
		return nil, err
	}

	span.AddEvent("created echo router")

	server.otelShutdown = shutdownOTel
	server.router = e
	server.db = db
	server.redis = rdb

	return server, nil
}

func (s *server) Start() error {
	logger.Logger.Info("Starting services...")

	err := s.router.Start(s.config.ListenAddress)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *server) Shutdown() error {
	var errs error

	ctx, cancelTimeout := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(s.config.GracefulShutdownSecs),
	)
	defer cancelTimeout()

	if err := s.router.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	if err := s.redis.Close(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to close redis client: %w", err))
	}

	if err := database.Close(s.db); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to close database: %w", err))
	}

	if s.otelShutdown != nil {
		errs = errors.Join(errs, s.otelShutdown(ctx))
	}

	return errs
}

func main() {
	ctx, cancelSignal := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	logger.InitSlog()

	server, err := initServer(ctx)
	if err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	errch := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Got shutdown signal!")
		errch <- server.Shutdown()
		close(errch)
	}()

	if err := server.Start(); err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	if err := <-errch; err != nil {
		logger.Logger.Error("Error shutting down server", "error", err)
	}

	cancelSignal()
}
