// Command migrate maintains the client session store: it applies or lists the
// schema migrations and purges stale sessions.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"disputelens/adapters/db"
)

const usage = "Usage: migrate [up|status|purge <max-age>]  (DSN from SESSION_STORE_DSN)"

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal(usage)
	}
	dsn := os.Getenv("SESSION_STORE_DSN")
	if dsn == "" {
		dsn = "disputelens.db"
	}
	ctx := context.Background()

	switch os.Args[1] {
	case "up":
		conn, err := db.Open(ctx, dsn)
		if err != nil {
			log.Fatalf("Failed to migrate %s store: %v", db.DriverFor(dsn), err)
		}
		defer conn.Close()
		log.Printf("Session store is up to date")

	case "status":
		conn, err := sqlx.ConnectContext(ctx, db.DriverFor(dsn), dsn)
		if err != nil {
			log.Fatalf("Failed to connect to session store: %v", err)
		}
		defer conn.Close()

		statuses, err := db.NewMigrator(conn).Status(ctx)
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			log.Printf("%-45s %s", s.Version, state)
		}

	case "purge":
		if len(os.Args) < 3 {
			log.Fatal(usage)
		}
		maxAge, err := time.ParseDuration(os.Args[2])
		if err != nil || maxAge <= 0 {
			log.Fatalf("Invalid max age %q: use a positive duration such as 720h", os.Args[2])
		}

		conn, err := db.Open(ctx, dsn)
		if err != nil {
			log.Fatalf("Failed to open session store: %v", err)
		}
		defer conn.Close()

		repo := db.NewSessionRepository(conn).(*db.SessionRepositoryImpl)
		n, err := repo.PurgeBefore(ctx, time.Now().Add(-maxAge))
		if err != nil {
			log.Fatalf("Failed to purge sessions: %v", err)
		}
		log.Printf("Purged %d sessions idle for more than %s", n, maxAge)

	default:
		log.Fatal(usage)
	}
}
