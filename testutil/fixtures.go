package testutil

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/crashstream/collision"
)

// ValidRow returns a fully populated source row in header order.
func ValidRow(collisionID string) []string {
	return []string{
		"09/11/2021", "2:39", "BROOKLYN", "11208", "40.6", "-73.9", "(40.6, -73.9)",
		"WHITESTONE EXPRESSWAY", "20 AVENUE", "",
		"2", "0", "0", "0", "0", "0", "2", "0",
		collisionID,
	}
}

// ValidRecord is the record ValidRow decodes to.
func ValidRecord(collisionID string) collision.Record {
	return collision.Record{
		CrashDate:       "09/11/2021",
		CrashTime:       "2:39",
		Borough:         "BROOKLYN",
		ZipCode:         "11208",
		Latitude:        40.6,
		Longitude:       -73.9,
		Location:        "(40.6, -73.9)",
		OnStreetName:    "WHITESTONE EXPRESSWAY",
		CrossStreetName: "20 AVENUE",
		PersonsInjured:  2,
		MotoristInjured: 2,
		CollisionID:     collisionID,
	}
}

// RowWith returns ValidRow with one column replaced.
func RowWith(collisionID, column, value string) []string {
	row := ValidRow(collisionID)
	for i, col := range collision.Columns {
		if col == column {
			row[i] = value
		}
	}
	return row
}

// WriteCSV writes a source file with the standard header followed by rows
// and returns its path. The file lives in t.TempDir().
func WriteCSV(t testing.TB, rows ...[]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(collision.Columns); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return WriteFile(t, buf.String())
}

// WriteFile writes raw content to a fresh source file and returns its path.
func WriteFile(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collisions.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}
