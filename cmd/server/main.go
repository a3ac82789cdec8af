package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"propmatch/internal/cache"
	"propmatch/internal/chat"
	"propmatch/internal/config"
	"propmatch/internal/handler"
	"propmatch/internal/quota"
	"propmatch/internal/repository"
	"propmatch/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "propmatch",
		Usage:   "AI property recommendation service",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "load environment variables from `FILE` before starting",
			},
		},
		Action: func(c *cli.Context) error {
			if envFile := c.String("env-file"); envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("failed to load %s: %w", envFile, err)
				}
			}
			return run()
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	log.Printf("PropMatch")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Printf("Mode: %s", cfg.Mode)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	store, err := repository.NewPostgresStore(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()
	log.Println("✅ Connected to PostgreSQL database")

	// Initialize key-value store
	kv, err := repository.OpenKVStore(cfg.Badger.Path, cfg.Badger.InMemory)
	if err != nil {
		return fmt.Errorf("failed to open key-value store: %w", err)
	}
	defer kv.Close()
	log.Println("✅ Opened key-value store")

	// Initialize OpenAI client
	openaiClient := service.NewOpenAIClient(&cfg.OpenAI)
	if cfg.OpenAI.Enabled {
		log.Printf("✅ OpenAI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
		log.Printf("   - Embedding model: %s", cfg.OpenAI.EmbeddingModel)
	} else {
		log.Println("⚠️  OpenAI is disabled - extraction, evaluation and chat will not work")
		log.Println("   Set OPENAI_API_KEY environment variable to enable AI features")
	}

	// Initialize services
	appCache := cache.New(kv, cfg.Cache.Namespace)
	tracker := quota.NewTracker(kv, cfg.Quota.Namespace, cfg.Quota.Ceiling, cfg.Quota.TTL)
	converter := service.NewRateAPIConverter(&cfg.Currency)
	extractor := service.NewPreferenceExtractor(openaiClient, store)
	compiler := service.NewQueryCompiler(converter, cfg.Currency.BaseCurrency)
	evaluator := service.NewRelevanceEvaluator(openaiClient)
	orchestrator := service.NewSearchOrchestrator(store, evaluator, &cfg.Search)
	assistant := service.NewAssistant(openaiClient)
	recommender := service.NewRecommender(extractor, compiler, orchestrator, assistant, appCache, &cfg.Cache)

	enricher, err := service.NewEnricher(store, openaiClient, cfg.Search.EnrichWorkers)
	if err != nil {
		return fmt.Errorf("failed to create enricher: %w", err)
	}
	defer enricher.Close()

	registry := chat.NewRegistry(cfg.Chat.SessionTTL)
	turnRunner := chat.NewTurnRunner(openaiClient, recommender, appCache, &cfg.Cache, &cfg.Chat)

	log.Println("✅ Services initialized")

	// Initialize handlers
	recommendHandler := handler.NewRecommendHandler(recommender, tracker, cfg.EnforceQuota())
	chatHandler := handler.NewChatHandler(turnRunner, registry, tracker, cfg.EnforceQuota())
	enrichHandler := handler.NewEnrichHandler(enricher)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	if cfg.Mode == config.ModeProd {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "X-Session-ID"}
	corsConfig.ExposeHeaders = []string{"X-Session-ID"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "propmatch",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/recommend", recommendHandler.Recommend)
		apiV1.GET("/prompts", recommendHandler.Prompts)

		apiV1.POST("/chat", chatHandler.Chat)
		apiV1.POST("/checkout", chatHandler.Checkout)

		apiV1.POST("/embeddings/batch", enrichHandler.BatchUpdate)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Println("✅ Server stopped")
	return nil
}
