package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nimasrn/hacienda/internal/config"
	"github.com/nimasrn/hacienda/pkg/db"
	"github.com/nimasrn/hacienda/pkg/logger"
)

// main.go [up|status] --env=.env --target=server|local
func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dbConf := config.Get().ServerDB()
	if getArg("--target=") == "local" {
		dbConf = config.Get().LocalDB()
	}

	sqlDB, err := db.OpenSQL(dbConf)
	if err != nil {
		logger.Error("migration: error opening db", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx := context.Background()
	switch command() {
	case "up":
		if err := db.MigrateSQL(ctx, sqlDB, dbConf.Driver); err != nil {
			logger.Error("migration: error running migrations", "error", err)
			os.Exit(1)
		}
	case "status":
		statuses, err := db.MigrationStatus(ctx, sqlDB, dbConf.Driver)
		if err != nil {
			logger.Error("migration: error reading status", "error", err)
			os.Exit(1)
		}
		for _, st := range statuses {
			fmt.Printf("%05d  %-8s  %s\n", st.Source.Version, st.State, st.Source.Path)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: cli [up|status] [--env=path] [--target=server|local]")
		os.Exit(2)
	}
}

func command() string {
	for _, v := range os.Args[1:] {
		if !strings.HasPrefix(v, "--") {
			return v
		}
	}
	return "up"
}

func getArg(prefix string) string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimPrefix(v, prefix)
		}
	}
	return ""
}

func getEnvPath() string {
	if p := getArg("--env="); p != "" {
		if _, err := os.Stat(p); err != nil {
			logger.Error("failed to open the passed env file", "path", p, "error", err)
			return ""
		}
		return p
	}
	if _, err := os.Stat(".env"); err != nil {
		return ""
	}
	return ".env"
}
