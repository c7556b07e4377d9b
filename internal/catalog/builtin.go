package catalog

import (
	"log/slog"

	"report-studio/internal/domain"
)

// Builtin returns the demo funds catalog used by the CLI and the demo
// entrypoint when no catalog file is configured.
func Builtin(logger *slog.Logger) (*Service, error) {
	fields := []domain.Field{
		{ID: "fund_name", DisplayName: "Fund Name", Type: domain.FieldTypeString, Aggregation: domain.AggregationNone, Column: "fund_name"},
		{ID: "region", DisplayName: "Region", Type: domain.FieldTypeString, Aggregation: domain.AggregationNone, Column: "region"},
		{ID: "strategy", DisplayName: "Strategy", Type: domain.FieldTypeString, Aggregation: domain.AggregationNone, Column: "strategy"},
		{ID: "inception_date", DisplayName: "Inception Date", Type: domain.FieldTypeDate, Aggregation: domain.AggregationNone, Column: "inception_date"},
		{ID: "fund_count", DisplayName: "Fund Count", Type: domain.FieldTypeNumber, Aggregation: domain.AggregationCount, Column: "fund_name"},
		{ID: "total_assets", DisplayName: "Total Assets", Type: domain.FieldTypeNumber, Aggregation: domain.AggregationSum, Column: "total_assets",
			Format: &domain.FormatRules{Prefix: "$", Precision: 1, Suffix: "M"}},
		{ID: "avg_return", DisplayName: "Average Return", Type: domain.FieldTypeNumber, Aggregation: domain.AggregationAvg, Column: "annual_return",
			Format: &domain.FormatRules{Precision: 2, Suffix: "%"}},
		{ID: "expense_ratio", DisplayName: "Expense Ratio", Type: domain.FieldTypeNumber, Aggregation: domain.AggregationAvg, Column: "expense_ratio",
			Format: &domain.FormatRules{Precision: 2, Suffix: "%"}},
		{ID: "net_return", DisplayName: "Net Return", Type: domain.FieldTypeNumber, Aggregation: domain.AggregationAvg,
			Formula: "avg_return - expense_ratio",
			Format:  &domain.FormatRules{Precision: 2, Suffix: "%"}},
	}
	return NewService("funds", "funds", fields, logger)
}
