package core_test

import (
	"context"
	"fmt"
	"os"

	"github.com/complyscan/complyscan/pkg/core"
)

// ExampleScan demonstrates scanning a SQLite database against a small
// rule set and printing the scored violations.
func ExampleScan() {
	cfg := core.Config{
		Database: core.DatabaseConfig{
			Type: "sqlite",
			Name: "app.db",
		},
		Rules: []core.Rule{
			{
				ID:             "ret-001",
				Type:           "data_retention",
				Text:           "Order records must be deleted after 90 days",
				Entities:       []string{"orders.created_at"},
				RetentionValue: 90,
				RetentionUnit:  "days",
			},
		},
		Tables:  []string{"orders"},
		Threads: 4,
	}

	violations, err := core.Scan(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		return
	}

	for _, v := range violations {
		fmt.Printf("%s %s.%s risk=%.1f\n", v.RuleID, v.Table, v.Column, v.RiskScore)
	}
}
