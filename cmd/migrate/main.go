package main

import (
	"context"
	"log"
	"os"
	"time"

	"afpdash/adapters/postgres"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate [database_url] (or set DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	var imports int
	if err := db.GetContext(ctx, &imports, `SELECT COUNT(*) FROM beneficiary_imports`); err != nil {
		log.Fatalf("Failed to count imports: %v", err)
	}
	log.Printf("Schema ready, %d imports stored", imports)
}
