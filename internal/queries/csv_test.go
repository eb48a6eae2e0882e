package queries

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func TestWriteCSVQuotesEveryField(t *testing.T) {
	items := []Query{
		{
			Question:  `Who has Go, "production" experience?`,
			Answer:    "Alice does.\nSee her resume.",
			Sources:   []Source{{FileName: "alice.pdf", Page: 2}, {FileName: "bob, jr.pdf"}},
			CreatedAt: time.Date(2026, time.August, 10, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, items); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, `"Date","Question","Answer","Sources"`) {
		t.Fatalf("unexpected header: %q", out)
	}

	// Every record must survive a round trip through a standard CSV reader.
	reader := csv.NewReader(strings.NewReader(out))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("re-parse exported CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 record, got %d rows", len(records))
	}

	row := records[1]
	if row[0] != "2026-08-10T09:30:00Z" {
		t.Fatalf("unexpected date %q", row[0])
	}
	if row[1] != `Who has Go, "production" experience?` {
		t.Fatalf("question mangled: %q", row[1])
	}
	if row[2] != "Alice does.\nSee her resume." {
		t.Fatalf("multiline answer mangled: %q", row[2])
	}
	if row[3] != "alice.pdf (p.2); bob, jr.pdf" {
		t.Fatalf("sources mangled: %q", row[3])
	}
}

func TestWriteCSVEmptyHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got := buf.String(); got != "\"Date\",\"Question\",\"Answer\",\"Sources\"\r\n" {
		t.Fatalf("expected header only, got %q", got)
	}
}
