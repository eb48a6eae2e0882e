package queries

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// csvHeader is the fixed column order of history exports.
const csvHeader = `"Date","Question","Answer","Sources"`

// WriteCSV renders queries as RFC 4180 CSV. Every field is quoted,
// including ones encoding/csv would leave bare; answers routinely contain
// commas and line breaks.
func WriteCSV(w io.Writer, items []Query) error {
	if _, err := io.WriteString(w, csvHeader+"\r\n"); err != nil {
		return err
	}
	for _, q := range items {
		record := []string{
			q.CreatedAt.UTC().Format(time.RFC3339),
			q.Question,
			q.Answer,
			formatSources(q.Sources),
		}
		quoted := make([]string, len(record))
		for i, field := range record {
			quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		if _, err := io.WriteString(w, strings.Join(quoted, ",")+"\r\n"); err != nil {
			return err
		}
	}
	return nil
}

// formatSources renders citations as "file.pdf (p.2); other.pdf".
func formatSources(sources []Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		if s.Page > 0 {
			parts = append(parts, fmt.Sprintf("%s (p.%d)", s.FileName, s.Page))
		} else {
			parts = append(parts, s.FileName)
		}
	}
	return strings.Join(parts, "; ")
}
