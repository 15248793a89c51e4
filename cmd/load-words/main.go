package main

import (
	"context"
	"flag"
	"log"
	"os"

	"undercover/internal/config"
	"undercover/internal/db"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	filePath := flag.String("file", cfg.WordsPath, "path to word pairs csv")
	flag.Parse()

	conn, err := db.Open(cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("failed to open word pairs: %v", err)
	}
	defer file.Close()

	pairs, err := db.ReadWordPairs(file)
	if err != nil {
		log.Fatalf("failed to read word pairs: %v", err)
	}

	added, err := db.LoadWordPairs(context.Background(), conn, pairs)
	if err != nil {
		log.Fatalf("failed to load word pairs: %v", err)
	}
	log.Printf("loaded word pairs read=%d added=%d", len(pairs), added)
}
