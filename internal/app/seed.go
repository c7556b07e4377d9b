package app

import (
	"context"
	"database/sql"
	"fmt"
)

// SeedDemoData creates and populates the demo funds table backing the
// built-in catalog. Safe to call repeatedly; existing data is kept.
func SeedDemoData(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS funds (
		fund_name VARCHAR,
		region VARCHAR,
		strategy VARCHAR,
		inception_date DATE,
		total_assets DOUBLE,
		annual_return DOUBLE,
		expense_ratio DOUBLE
	)`)
	if err != nil {
		return fmt.Errorf("create funds table: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM funds`).Scan(&count); err != nil {
		return fmt.Errorf("count funds: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err = db.ExecContext(ctx, `INSERT INTO funds VALUES
		('Global Alpha',   'EMEA', 'Growth', '2015-03-01', 120.5, 8.4, 0.90),
		('Euro Income',    'EMEA', 'Income', '2012-07-15',  80.0, 4.2, 0.60),
		('Nordic Equity',  'EMEA', 'Growth', '2017-11-30',  45.3, 7.8, 0.85),
		('Pacific Core',   'APAC', 'Growth', '2018-01-20',  60.0, 9.1, 1.10),
		('Pacific Bond',   'APAC', 'Income', '2019-05-05',  40.0, 3.3, 0.50),
		('Andes Value',    'AMER', 'Value',  '2014-09-09',  95.7, 6.2, 0.75),
		('Liberty Growth', 'AMER', 'Growth', '2011-02-14', 150.2, 8.9, 0.95)`)
	if err != nil {
		return fmt.Errorf("seed funds table: %w", err)
	}
	return nil
}
