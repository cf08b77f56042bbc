package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/cart-api/internal/app/dto"
	"github.com/mrops-br/cart-api/internal/app/service"
	"github.com/mrops-br/cart-api/internal/domain"
	"github.com/mrops-br/cart-api/internal/infrastructure/config"
	"github.com/mrops-br/cart-api/internal/infrastructure/http"
	"github.com/mrops-br/cart-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/mongodb"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/redisdb"
	"github.com/mrops-br/cart-api/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
)

// demoProducts is loaded into an empty catalog when seeding is enabled.
var demoProducts = []dto.CreateProductRequest{
	{Name: "Desk Lamp", Description: "LED lamp with adjustable arm", Category: "home", Price: 750, Stock: 10},
	{Name: "Notebook", Description: "A5 dotted notebook", Category: "stationery", Price: 120, Stock: 0},
	{Name: "Headphones", Description: "Over-ear wireless headphones", Category: "electronics", Price: 2499, Stock: 3},
	{Name: "Coffee Mug", Description: "Ceramic mug, 350ml", Category: "home", Price: 299, Stock: 25},
}

type stores struct {
	products domain.ProductRepository
	carts    domain.CartRepository
	closers  []func(context.Context) error
}

func (s *stores) close(ctx context.Context, logger *slog.Logger) {
	for _, closer := range s.closers {
		if err := closer(ctx); err != nil {
			logger.Error("Error closing store", slog.String("error", err.Error()))
		}
	}
}

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize OpenTelemetry
	var telem *telemetry.Telemetry
	if cfg.OTLP.Enabled {
		var err error
		telem, err = telemetry.NewTelemetry(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize telemetry: %v", err)
		}
	} else {
		telem = telemetry.NewNoOpTelemetry(cfg)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure telemetry is shutdown on exit
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	// Get tracer, meter, and logger instances
	tracer := telem.TracerProvider.Tracer(cfg.OTLP.ServiceName)
	meter := telem.MeterProvider.Meter(cfg.OTLP.ServiceName)
	logger := telem.Logger

	logger.Info("Starting Cart API",
		slog.String("product_store", cfg.Store.ProductBackend),
		slog.String("cart_store", cfg.Store.CartBackend),
	)

	// Initialize repositories (dependency injection)
	st, err := openStores(ctx, cfg, tracer, logger)
	if err != nil {
		logger.Error("Failed to open stores", slog.String("error", err.Error()))
		return
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		st.close(closeCtx, logger)
	}()

	// Initialize services
	productService := service.NewProductService(st.products, tracer, meter, logger)
	cartService := service.NewCartService(st.carts, st.products, tracer, meter, logger)

	if cfg.Store.SeedProducts {
		if _, err := productService.SeedCatalog(ctx, demoProducts); err != nil {
			logger.Error("Failed to seed products", slog.String("error", err.Error()))
			return
		}
	}

	// Initialize handlers
	cartHandler := handler.NewCartHandler(cartService, logger)
	productHandler := handler.NewProductHandler(productService, logger)

	// Initialize HTTP server
	server := http.NewServer(&cfg.Server, cartHandler, productHandler, logger, telem)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", "error", err.Error())
			cancel()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, tracer trace.Tracer, logger *slog.Logger) (*stores, error) {
	st := &stores{}

	var mongoDB *mongo.Database
	database := func() (*mongo.Database, error) {
		if mongoDB != nil {
			return mongoDB, nil
		}
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, client.Disconnect)
		mongoDB = client.Database(cfg.Mongo.Database)
		logger.Info("Connected to MongoDB", slog.String("database", cfg.Mongo.Database))
		return mongoDB, nil
	}

	switch cfg.Store.ProductBackend {
	case "memory":
		st.products = memory.NewProductRepository(tracer, logger)
	case "mongo":
		db, err := database()
		if err != nil {
			return nil, err
		}
		st.products = mongodb.NewProductRepository(db, tracer, logger)
	default:
		return nil, fmt.Errorf("unknown product store %q", cfg.Store.ProductBackend)
	}

	switch cfg.Store.CartBackend {
	case "memory":
		st.carts = memory.NewCartRepository(tracer, logger)
	case "mongo":
		db, err := database()
		if err != nil {
			st.close(ctx, logger)
			return nil, err
		}
		repo := mongodb.NewCartRepository(db, tracer, logger)
		if err := repo.EnsureIndexes(ctx); err != nil {
			st.close(ctx, logger)
			return nil, err
		}
		st.carts = repo
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		st.closers = append(st.closers, func(context.Context) error { return client.Close() })
		repo := redisdb.NewCartRepository(client, cfg.Redis.Prefix, tracer, logger)
		if err := repo.Ping(ctx); err != nil {
			st.close(ctx, logger)
			return nil, err
		}
		logger.Info("Connected to Redis", slog.String("addr", cfg.Redis.Addr))
		st.carts = repo
	default:
		st.close(ctx, logger)
		return nil, fmt.Errorf("unknown cart store %q", cfg.Store.CartBackend)
	}

	return st, nil
}
