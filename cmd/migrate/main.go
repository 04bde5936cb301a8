package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tally-backend/pkg/config"
	"github.com/angelmondragon/tally-backend/pkg/db"
	"github.com/angelmondragon/tally-backend/pkg/logger"
	"github.com/angelmondragon/tally-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "tally-migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate only touch the filesystem
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fail("failed to create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "tally-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	if cfg.DB.IsSQLite() {
		fail("goose migrations target postgres; sqlite schemas are created by the api in dev mode")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	migrator, err := migrate.NewMigrator(sqlDB, *dir)
	requireResource(ctx, logg, "migrations", err)

	switch *cmd {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			fail("goose up failed: %v", err)
		}
		fmt.Printf("applied %d migration(s): %v\n", len(applied), applied)

	case "down":
		version, err := migrator.Down(ctx)
		if err != nil {
			fail("goose down failed: %v", err)
		}
		fmt.Println("rolled back", version)

	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			fail("goose status failed: %v", err)
		}
		versions := make([]int64, 0, len(statuses))
		for v := range statuses {
			versions = append(versions, v)
		}
		slices.Sort(versions)
		for _, v := range versions {
			state := "pending"
			if statuses[v] {
				state = "applied"
			}
			fmt.Printf("%d\t%s\n", v, state)
		}

	case "version":
		if *version == "" {
			fail("missing -version for version command")
		}
		if err := migrator.To(ctx, *version); err != nil {
			fail("goose version migrate failed: %v", err)
		}

	default:
		fail("unknown -cmd value: %s", *cmd)
	}

	logg.Info(ctx, "migrate finished")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
