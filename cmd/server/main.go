package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adspilot/metads-assistant/internal/advisor"
	"github.com/adspilot/metads-assistant/internal/api"
	"github.com/adspilot/metads-assistant/internal/assistant"
	"github.com/adspilot/metads-assistant/internal/auth"
	"github.com/adspilot/metads-assistant/internal/config"
	"github.com/adspilot/metads-assistant/internal/meta"
	"github.com/adspilot/metads-assistant/internal/storage"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Meta Graph client and realtime monitor
	client := meta.NewClient(cfg.Meta)
	monitor := meta.NewMonitor(client, cfg.Polling)
	adv := advisor.New(client)

	// Optional OpenAI narrative agent
	dispatcher := assistant.NewDispatcher(client)
	agent := assistant.NewOpenAIAgent(cfg.OpenAI, dispatcher)
	if agent != nil {
		log.Printf("OpenAI narrative agent enabled (model %s)", cfg.OpenAI.Model)
	}
	asst := assistant.New(client, agent)

	// Supabase-backed auth
	supabase := auth.NewSupabaseClient(cfg.Supabase)
	authSvc := auth.NewService(supabase, cfg.Auth)

	// Optional Postgres chat persistence
	var chats *storage.ChatRepo
	if cfg.Database.Enabled {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("Database unreachable: %v", err)
		}
		chats = storage.NewChatRepo(db)
		if err := chats.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure chat schema: %v", err)
		}
		log.Println("Chat persistence enabled")
	}

	// Optional Redis cache and rate limiting
	var cache *storage.InsightCache
	var limiter *storage.RateLimiter
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis unreachable: %v", err)
		}
		cache = storage.NewInsightCache(rdb, cfg.Redis.CacheTTL())
		limiter = storage.NewRateLimiter(rdb, cfg.Chat.TurnsPerMinute)
		log.Println("Redis cache and rate limiting enabled")
	}

	handlers := api.NewHandlers(asst, adv, client, monitor, authSvc, chats, cache, limiter, cfg.Chat)
	server := api.NewServer(cfg.Server, handlers, authSvc, cfg.CORS.AllowedOrigins)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	monitor.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
