// Demo entry point: seeds a DuckDB funds table, authors a report through
// drag/drop composition, runs the section previews, and round-trips the
// definition through the SQLite metastore.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"report-studio/internal/app"
	"report-studio/internal/composer"
	"report-studio/internal/config"
	"report-studio/internal/db"
	"report-studio/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	writeDB, readDB, err := db.OpenSQLitePair(cfg.ReportDBPath, 0)
	if err != nil {
		return err
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck
	if err := db.RunMigrations(writeDB); err != nil {
		return err
	}

	duck, err := sql.Open("duckdb", cfg.DuckDBPath)
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer duck.Close() //nolint:errcheck
	if err := app.SeedDemoData(ctx, duck); err != nil {
		return err
	}

	a, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		DuckDB:  duck,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// === Author a report through the composition engine ===
	store := a.NewStore()
	store.Initialize(composer.InitRequest{
		Name: "Fund Overview",
		DataSource: &domain.DataSourceRef{
			ID:    domain.NewID(),
			Name:  a.Catalog.Name(),
			Table: a.Catalog.Table(),
		},
	})

	fundName := mustField(ctx, a, "fund_name")
	region := mustField(ctx, a, "region")
	totalAssets := mustField(ctx, a, "total_assets")
	avgReturn := mustField(ctx, a, "avg_return")

	// First drop lands on the empty canvas and creates a table section.
	res, err := store.ResolveDrop(ctx,
		composer.DropPayload{Fields: []domain.Field{fundName, region, totalAssets}},
		composer.DropTarget{},
	)
	if err != nil {
		return err
	}
	tableID := res.SectionID

	// A chart over regions, built field by field.
	chart, err := store.AddSection(composer.AddSectionRequest{
		Kind:   domain.SectionKindChart,
		Layout: domain.Layout{Y: 4, W: 6, H: 4},
	})
	if err != nil {
		return err
	}
	if _, err := store.AddFieldToSection(chart.ID, region, composer.RouteField(region)); err != nil {
		return err
	}
	if _, err := store.AddFieldToSection(chart.ID, avgReturn, composer.RouteField(avgReturn)); err != nil {
		return err
	}
	if err := store.AddFilterToSection(chart.ID, domain.QueryFilter{
		FieldID: "total_assets", Op: domain.OpGreaterThan, Value: 50,
	}); err != nil {
		return err
	}

	// === Run every section query and print the previews ===
	if err := store.RefreshAll(ctx); err != nil {
		return err
	}
	for _, id := range []string{tableID, chart.ID} {
		sec := store.Current().FindSection(id)
		st, _ := store.Preview(id)
		fmt.Printf("\n== %s section (%dms)\n", sec.Kind, st.ExecutionTimeMs)
		if st.Err != "" {
			fmt.Printf("query failed: %s\n", st.Err)
			continue
		}
		printRows(sec.Query.FieldIDs(), st.Rows)
	}

	// === Save, reload, undo ===
	saved, err := a.Reports.Save(ctx, store.Current())
	if err != nil {
		return err
	}
	store.MarkSaved(saved)
	fmt.Printf("\nsaved %q as version %d\n", saved.Name, saved.Version)

	loaded, err := a.Reports.GetByID(ctx, saved.ID)
	if err != nil {
		return err
	}
	fmt.Printf("reloaded %q: %d root sections\n", loaded.Name, len(loaded.Sections))

	store.Undo()
	fmt.Printf("after undo: %d root sections, dirty=%v\n",
		len(store.Current().Sections), store.Dirty())
	return nil
}

func mustField(ctx context.Context, a *app.App, id string) domain.Field {
	f, err := a.Catalog.GetField(ctx, id)
	if err != nil {
		log.Fatalf("catalog field %s: %v", id, err)
	}
	return *f
}

func printRows(cols []string, rows []map[string]interface{}) {
	fmt.Println(strings.Join(cols, "\t"))
	fmt.Println(strings.Repeat("-", 72))
	for _, row := range rows {
		parts := make([]string, len(cols))
		for i, col := range cols {
			parts[i] = fmt.Sprintf("%v", row[col])
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
	fmt.Printf("(%d rows)\n", len(rows))
}
