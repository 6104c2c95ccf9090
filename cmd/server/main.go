package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"kotonoha/internal/chat"
	"kotonoha/internal/config"
	"kotonoha/internal/handler"
	"kotonoha/internal/hub"
	"kotonoha/internal/presence"
	"kotonoha/internal/store"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  .env file not found, using default values: %v", err)
	}

	// 環境変数を読み込み
	cfg := config.Load()

	// メッセージストアを初期化（DB_NAME未設定ならインメモリ）
	var messageStore store.MessageStore
	if cfg.DBName != "" {
		mysqlStore, err := store.OpenMySQL(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		defer mysqlStore.Close()
		messageStore = mysqlStore
	} else {
		log.Println("⚠️  DB_NAME not set, using in-memory message store")
		messageStore = store.NewMemoryStore()
	}

	// コアコンポーネントを組み立て
	broadcastHub := hub.New()
	tracker := presence.NewTracker()
	service := chat.NewService(messageStore, broadcastHub, cfg)
	lifecycle := chat.NewLifecycle(tracker, broadcastHub)

	h := handler.New(service, lifecycle, tracker, broadcastHub, cfg)
	router := h.SetupRouter()

	// CORS対応
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS", "PUT"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		MaxAge:           300,
		AllowCredentials: true,
	})

	httpHandler := c.Handler(router)

	fmt.Println("========================================")
	fmt.Println("  Kotonoha Chat Server")
	fmt.Println("========================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Server: http://localhost:%s\n", cfg.ServerPort)
	fmt.Printf("  WebSocket: ws://localhost:%s/ws\n", cfg.ServerPort)
	if cfg.DBName != "" {
		fmt.Printf("  Database: %s@%s:%s/%s\n", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	fmt.Printf("  Allowed Origins: %v\n", cfg.AllowedOrigins)
	fmt.Printf("  Broadcast Edits: %v\n", cfg.BroadcastEdits)
	fmt.Println("========================================")
	log.Println("🚀 Server started successfully")
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, httpHandler))
}
