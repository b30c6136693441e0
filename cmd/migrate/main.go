package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"chatter-server/internal/config"
	"chatter-server/internal/domain/activity"
	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/domain/notification"
	"chatter-server/internal/domain/outbox"
	"chatter-server/internal/domain/search"
	"chatter-server/pkg/database"
)

const usage = `
Chatter Server - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up       Run schema migrations
  status   Show database connection status
`

func main() {
	flag.Usage = func() { fmt.Print(usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	switch flag.Arg(0) {
	case "up":
		if err := db.AutoMigrate(
			&chatter.Message{},
			&chatter.Mention{},
			&chatter.Reaction{},
			&chatter.AttachmentRef{},
			&chatter.ReadReceipt{},
			&chatter.RosterUser{},
			&notification.Notification{},
			&notification.UnreadCounter{},
			&search.Entry{},
			&search.Deletion{},
			&activity.Entry{},
			&outbox.Event{},
		); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		log.Println("migrations completed")
	case "status":
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("database handle: %v", err)
		}
		if err := sqlDB.Ping(); err != nil {
			log.Fatalf("database ping failed: %v", err)
		}
		log.Println("database connection: OK")
	default:
		fmt.Printf("unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
