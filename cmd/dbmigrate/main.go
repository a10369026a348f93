package main

import (
	"flag"
	"fmt"
	"log"

	"gorm.io/gorm"

	"tg-automod/internal/config"
	"tg-automod/internal/logger"
	"tg-automod/internal/models"
	"tg-automod/internal/storage"
)

// tables lists every model the moderation service persists.
var tables = []struct {
	name  string
	model any
}{
	{"WarningRecord", &models.WarningRecord{}},
	{"MuteRecord", &models.MuteRecord{}},
	{"CommunitySettings", &models.CommunitySettings{}},
	{"ModerationAction", &models.ModerationAction{}},
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	action := flag.String("action", "migrate", "Action to perform (migrate, reset, status)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.SetOutput(logger.GetRotatingLogWriter(cfg, "dbmigrate"))

	if !cfg.Database.Enabled {
		log.Fatalf("Database is not enabled in configuration")
	}

	db, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer storage.Close(db)

	switch *action {
	case "migrate":
		if err := migrateDatabase(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed successfully")
	case "reset":
		if err := resetDatabase(db); err != nil {
			log.Fatalf("Reset failed: %v", err)
		}
		log.Println("Database reset completed successfully")
	case "status":
		checkStatus(db)
	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}

func migrateDatabase(db *gorm.DB) error {
	fmt.Println("Migrating database...")
	return storage.Migrate(db)
}

// resetDatabase drops tables and recreates them
func resetDatabase(db *gorm.DB) error {
	fmt.Println("Resetting database...")

	fmt.Print("WARNING: This will delete all warnings, mutes, settings and the audit trail! Are you sure? (y/N): ")
	var confirmation string
	fmt.Scanln(&confirmation)

	if confirmation != "y" && confirmation != "Y" {
		return fmt.Errorf("operation cancelled by user")
	}

	for _, table := range tables {
		if err := db.Migrator().DropTable(table.model); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", table.name, err)
		}
	}

	return migrateDatabase(db)
}

func checkStatus(db *gorm.DB) {
	fmt.Println("Checking database status...")

	for _, table := range tables {
		if !db.Migrator().HasTable(table.model) {
			fmt.Printf("❌ %s table does not exist\n", table.name)
			continue
		}
		fmt.Printf("✅ %s table exists\n", table.name)

		var count int64
		if err := db.Model(table.model).Count(&count).Error; err != nil {
			fmt.Printf("   - Cannot count records: %v\n", err)
			continue
		}
		fmt.Printf("   - Contains %d records\n", count)
	}
}
