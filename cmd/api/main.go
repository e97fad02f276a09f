package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"io.winapps.tripjournal/internal/assembly"
	"io.winapps.tripjournal/internal/blob"
	"io.winapps.tripjournal/internal/cache"
	"io.winapps.tripjournal/internal/config"
	"io.winapps.tripjournal/internal/db"
	"io.winapps.tripjournal/internal/docstore"
	firebaseutil "io.winapps.tripjournal/internal/firebase"
	"io.winapps.tripjournal/internal/handlers"
	"io.winapps.tripjournal/internal/identity"
	"io.winapps.tripjournal/internal/journals"
	"io.winapps.tripjournal/internal/logging"
	"io.winapps.tripjournal/internal/middleware"
	"io.winapps.tripjournal/internal/places"
	"io.winapps.tripjournal/internal/profiles"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase; Auth is always needed, Firestore and Storage only
	// when they back the document or blob store.
	firebaseApp, err := firebaseutil.InitFirebase(ctx, firebaseutil.Options{
		ProjectID:          cfg.FirebaseProjectID,
		ServiceAccountPath: cfg.FirebaseServiceAccountPath,
		StorageBucket:      cfg.StorageBucket,
	})
	if err != nil {
		logger.Fatalw("Failed to initialize Firebase", "error", err)
	}
	clients, err := firebaseutil.NewClients(ctx, firebaseApp,
		cfg.StoreBackend == config.BackendFirestore,
		cfg.BlobBackend == config.BackendFirestore,
	)
	if err != nil {
		logger.Fatalw("Failed to open Firebase clients", "error", err)
	}
	defer clients.Close()

	var store docstore.Store
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		store = docstore.NewFirestore(clients.Firestore)
	default:
		logger.Warnw("Using in-memory document store; data is lost on restart")
		store = docstore.NewMemory()
	}

	var blobs blob.Store
	switch cfg.BlobBackend {
	case config.BackendFirestore:
		blobs = blob.NewFirebaseStorage(clients.Bucket, cfg.StorageBucket)
	default:
		blobs = blob.NewMemory("http://localhost:" + cfg.Port + "/blobs")
	}

	var viewCache, profileCache cache.Cache
	switch cfg.CacheBackend {
	case config.BackendRedis:
		redisClient, err := db.InitRedis(ctx, db.RedisOptions{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Fatalw("Failed to initialize Redis", "error", err)
		}
		defer redisClient.Close()
		viewCache = cache.NewRedis(redisClient, cfg.CacheTTL)
		profileCache = cache.NewRedis(redisClient, cfg.CacheTTL)
	default:
		viewCache = cache.NewLocal(cfg.CacheSize, cfg.CacheTTL)
		profileCache = cache.NewLocal(cfg.CacheSize, cfg.CacheTTL)
	}

	var profileStore profiles.Store
	switch cfg.ProfileStore {
	case config.BackendPostgres:
		pool, err := db.InitPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalw("Failed to initialize PostgreSQL", "error", err)
		}
		defer pool.Close()
		profileStore = profiles.NewPostgresStore(pool)
	default:
		profileStore = profiles.NewDocumentStore(store)
	}

	defaults := journals.Defaults{
		Currency:            cfg.DefaultCurrency,
		PlaceholderImageURL: cfg.PlaceholderImageURL,
	}
	views := cache.NewJournalViews(viewCache, logger)
	journalRepo := journals.NewRepository(store, views, defaults, logger)
	placeRepo := places.NewRepository(store, views, logger)
	engine := assembly.NewEngine(store, views, defaults, logger)
	resolver := profiles.NewResolver(profileStore, profileCache, logger)
	provider := identity.NewProvider(clients.Auth, cfg.IdentityToolkitURL, cfg.FirebaseWebAPIKey, logger)

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	go limiter.Cleanup(ctx)

	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.RequestLoggingMiddleware(logger),
		middleware.RecoveryMiddleware(logger),
		middleware.CORSMiddleware(cfg.CORSOrigins),
	)

	handlers.RegisterRoutes(router, handlers.Routes{
		Auth:        handlers.NewAuthHandler(provider, profileStore, logger),
		Journals:    handlers.NewJournalHandler(journalRepo, placeRepo, engine, resolver, blobs, logger),
		Profiles:    handlers.NewProfileHandler(profileStore, journalRepo, provider, blobs, logger),
		Verifier:    provider,
		AuthLimiter: limiter,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infow("Server starting",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"store_backend", cfg.StoreBackend,
			"blob_backend", cfg.BlobBackend,
			"cache_backend", cfg.CacheBackend,
			"profile_store", cfg.ProfileStore,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("Shutting down server...")

	// Give a 5 second timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Infow("Server exited")
}
