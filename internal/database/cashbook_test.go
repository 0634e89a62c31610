package database

import (
	"os"
	"strings"
	"testing"
)

// The unit suite runs against mocks, so a query naming a table the schema
// never creates only surfaces under the integration build tag. Cross-check
// the ledger statements against the migration DDL here instead.
func TestCashbookQueriesTargetMigratedTable(t *testing.T) {
	ddl, err := os.ReadFile("../../migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("reading migration: %v", err)
	}
	if !strings.Contains(string(ddl), "CREATE TABLE cashbook_entries") {
		t.Fatal("migration does not create cashbook_entries")
	}

	queries := map[string]string{
		"createCashbookEntry": createCashbookEntry,
		"listCashbookEntries": listCashbookEntries,
		"queryLedgerRange":    queryLedgerRange,
		"getCashTotals":       getCashTotals,
	}
	for name, sql := range queries {
		if !strings.Contains(sql, "cashbook_entries") {
			t.Errorf("%s does not reference cashbook_entries:\n%s", name, sql)
		}
	}
}
