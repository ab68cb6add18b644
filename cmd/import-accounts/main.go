// Command import-accounts validates an accounts.json file and seeds the
// corresponding rows into the bot database. It is safe to re-run: existing
// accounts are left untouched.
package main

import (
	"flag"
	"fmt"
	"os"

	"spinbot.dev/spin-api-go/internal/config"
	"spinbot.dev/spin-api-go/internal/database"
)

func main() {
	accountsPath := flag.String("accounts", "accounts.json", "path to accounts.json")
	dbPath := flag.String("db", "data/spinbot.db", "path to the bot database")
	dryRun := flag.Bool("dry-run", false, "validate only, do not write to the database")
	flag.Parse()

	result, err := config.LoadAccounts(*accountsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, reason := range result.Skipped {
		fmt.Printf("SKIP  %s\n", reason)
	}
	for _, cfg := range result.Configs {
		fmt.Printf("OK    %s (group=%s window=%s-%s interval=%dm jitter=%d-%ds)\n",
			cfg.ID, cfg.AchievementGroup, cfg.WindowStart, cfg.WindowEnd,
			cfg.BaseIntervalMin, cfg.JitterMinSec, cfg.JitterMaxSec)
	}
	fmt.Printf("\n%d valid, %d skipped\n", len(result.Configs), len(result.Skipped))

	if *dryRun {
		return
	}
	if len(result.Configs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no valid accounts to import")
		os.Exit(1)
	}

	db, err := database.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	imported := 0
	for _, cfg := range result.Configs {
		if _, err := db.UpsertAccount(cfg.ID, cfg.AchievementGroup); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to import %s: %v\n", cfg.ID, err)
			os.Exit(1)
		}
		imported++
	}
	fmt.Printf("Imported %d accounts into %s\n", imported, *dbPath)
}
