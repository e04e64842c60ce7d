package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"propertyhub/web/config"
	"propertyhub/web/internal/api"
	"propertyhub/web/internal/backend"
	"propertyhub/web/internal/favorites"
	"propertyhub/web/internal/geocoding"
	"propertyhub/web/internal/listing"
	"propertyhub/web/internal/notify"
	"propertyhub/web/internal/session"
	"propertyhub/web/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Local store for the session and favorite marks
	store, err := storage.NewStore(cfg.Storage.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open local storage")
	}
	defer store.Close()

	logger.Info("Running storage migrations...")
	if err := store.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run storage migrations")
	}

	// Restore the session before anything reads it
	sessions := session.NewStore(store, logger)
	sessions.Rehydrate()

	client := backend.NewClient(
		cfg.Backend.BaseURL,
		sessions,
		time.Duration(cfg.Backend.Timeout)*time.Second,
		logger,
	)

	// Favorites: local-first toggles reconciled in the background
	queue := favorites.NewToggleQueue(cfg.FavoriteSync.QueueSize, logger)
	tracker := favorites.NewTracker(store, queue, logger)
	if err := tracker.Load(); err != nil {
		logger.WithError(err).Error("Failed to load favorite marks")
	}

	syncer := favorites.NewSyncer(client, tracker, queue, cfg, logger)
	syncer.Start()
	queue.Start()
	defer queue.Close()
	defer syncer.Stop()

	resync := favorites.NewResync(tracker, queue,
		time.Duration(cfg.FavoriteSync.ResyncInterval)*time.Second, logger)
	resync.Start()
	defer resync.Stop()

	var geocoder *geocoding.Geocoder
	if cfg.Geocoding.Enabled {
		cacheDir := cfg.Geocoding.CacheDir
		if cacheDir == "" {
			cacheDir = filepath.Join(os.TempDir(), "propertyhub", "geocode_cache")
		}
		geocoder = geocoding.NewGeocoder(logger, cacheDir, cfg.Geocoding.CountryCodes)
	}

	var listings *listing.Service
	if geocoder != nil {
		listings = listing.NewService(client, tracker, geocoder, logger)
	} else {
		listings = listing.NewService(client, tracker, nil, logger)
	}

	notifier := notify.NewService(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	if notifier.Enabled() {
		logger.Info("Telegram notifications enabled")
	}

	handler := api.NewHandler(client, sessions, listings, tracker, notifier, logger)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api.SetupRoutes(router, handler, sessions)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
