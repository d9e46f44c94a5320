package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-social/auth"
	"github.com/krishkalaria12/snap-social/config"
	"github.com/krishkalaria12/snap-social/database"
	handler "github.com/krishkalaria12/snap-social/handlers"
	"github.com/krishkalaria12/snap-social/logging"
	"github.com/krishkalaria12/snap-social/media"
	"github.com/krishkalaria12/snap-social/repository"
	"github.com/krishkalaria12/snap-social/router"
	"github.com/krishkalaria12/snap-social/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	db, err := database.Connect(database.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DatabaseURL,
		LogLevel: database.LogLevel(cfg.LogLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	// close the database connection
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error(ctx, "failed to close the database connection", "error", err)
		}
	}()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open media store: %v", err)
	}
	defer closeStore()

	var remover media.AssetRemover
	syncRemover := media.NewRemover(store, logger.With("component", "media"))
	var asyncRemover *media.AsyncRemover
	if cfg.MediaAsyncCleanup {
		asyncRemover = media.NewAsyncRemover(syncRemover, cfg.MediaWorkers)
		remover = asyncRemover
	} else {
		remover = syncRemover
	}

	policy, err := services.ParseCascadePolicy(cfg.CascadePolicy)
	if err != nil {
		log.Fatalf("Invalid cascade policy: %v", err)
	}

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	sessions := auth.NewSessions(db)
	tokens := auth.NewService(auth.Options{Secret: cfg.JWTSecret, Issuer: cfg.Issuer}, sessions)

	accounts := services.NewAccountService(services.AccountDeps{
		Users:       users,
		Posts:       posts,
		Likes:       repository.NewLikeRepository(db),
		Credentials: auth.NewCredentials(users),
		Remover:     remover,
		Sessions:    tokens,
		Policy:      policy,
		Logger:      logger.With("component", "accounts"),
	})
	postService := services.NewPostService(posts, remover, logger.With("component", "posts"))

	uploader := media.NewUploader(store)
	app := fiber.New(fiber.Config{
		BodyLimit: media.MaxUploadBytes + 1<<20,
	})

	router.SetupRoutes(app, router.Handlers{
		Auth:    handler.NewAuthHandler(accounts, tokens, logger),
		Profile: handler.NewProfileHandler(accounts, uploader, logger),
		Posts:   handler.NewPostHandler(postService, uploader, logger),
		Media:   handler.NewMediaHandler(store, logger),
	}, tokens)
	router.ServeDefault(app, cfg.MediaRoot)

	go func() {
		addr := ":" + cfg.Port
		logger.Info(ctx, "server is listening", "addr", addr)
		if err := app.Listen(addr); err != nil {
			logger.Error(ctx, "server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error(ctx, "failed to shut down server", "error", err)
	}
	if asyncRemover != nil {
		if err := asyncRemover.Close(shutdownCtx); err != nil {
			logger.Error(ctx, "pending image removals were dropped", "error", err)
		}
	}
}

func openStore(ctx context.Context, cfg *config.Settings) (media.Store, func(), error) {
	switch cfg.MediaBackend {
	case "gcs":
		s, err := media.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "s3":
		s, err := media.NewS3Store(ctx, media.S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Prefix:       cfg.S3Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "local":
		s, err := media.NewLocalStore(cfg.MediaRoot)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported media backend %q", cfg.MediaBackend)
	}
}
