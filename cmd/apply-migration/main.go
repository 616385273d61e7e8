package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Pristinepartners/pristine-crm-sub000/common/database"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/config"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/migrations"
)

// 用法: apply-migration [migration_file.sql]
// 不带参数时执行内置 schema
func main() {
	script := migrations.Schema()
	source := "embedded schema"
	if len(os.Args) >= 2 {
		b, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read migration file: %v", err)
		}
		script = string(b)
		source = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer database.Close(db)

	fmt.Printf("Connected to database: %s\n", cfg.Database.Database)
	fmt.Printf("Applying %s...\n", source)

	n, err := migrations.Apply(context.Background(), db, script)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Printf("Migration completed successfully (%d statements)\n", n)
}
