package ranking

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Candidate is one ranked resume in a screening result.
type Candidate struct {
	Rank      int      `json:"rank"`
	Name      string   `json:"name"`
	FileName  string   `json:"fileName"`
	Score     int      `json:"score"`
	Reasons   []string `json:"reasons"`
	RedFlags  []string `json:"redFlags"`
	Links     []string `json:"links"`
	Citations []string `json:"citations"`
}

// ParseError marks model output that does not match the ranking schema.
// Callers translate it to a retryable failure rather than persisting
// garbage.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ranking output did not match schema: %s", e.Reason)
}

type rankingPayload struct {
	Candidates []Candidate `json:"candidates"`
}

// Parse decodes a model completion into candidates. Code fences around the
// JSON are tolerated; anything else malformed is a ParseError.
func Parse(raw string) ([]Candidate, error) {
	trimmed := stripCodeFence(raw)
	if trimmed == "" {
		return nil, &ParseError{Reason: "empty response", Raw: raw}
	}

	var payload rankingPayload
	decoder := json.NewDecoder(strings.NewReader(trimmed))
	if err := decoder.Decode(&payload); err != nil {
		return nil, &ParseError{Reason: err.Error(), Raw: raw}
	}
	if payload.Candidates == nil {
		return nil, &ParseError{Reason: "missing candidates array", Raw: raw}
	}
	for i, c := range payload.Candidates {
		if strings.TrimSpace(c.FileName) == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("candidate %d missing fileName", i), Raw: raw}
		}
	}
	return payload.Candidates, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
