package ranking

import (
	"errors"
	"testing"
)

func TestNormalizeClampsScores(t *testing.T) {
	out := Normalize([]Candidate{
		{FileName: "a.pdf", Score: 140},
		{FileName: "b.pdf", Score: -5},
		{FileName: "c.pdf", Score: 55},
	})
	if out[0].Score != 100 {
		t.Fatalf("score not clamped to 100: %d", out[0].Score)
	}
	if out[len(out)-1].Score != 0 {
		t.Fatalf("score not clamped to 0: %d", out[len(out)-1].Score)
	}
}

func TestNormalizeReassignsRanks(t *testing.T) {
	out := Normalize([]Candidate{
		{FileName: "low.pdf", Score: 10, Rank: 1},
		{FileName: "high.pdf", Score: 90, Rank: 7},
		{FileName: "mid.pdf", Score: 50},
	})
	if out[0].FileName != "high.pdf" || out[1].FileName != "mid.pdf" || out[2].FileName != "low.pdf" {
		t.Fatalf("not sorted by score: %+v", out)
	}
	for i, c := range out {
		if c.Rank != i+1 {
			t.Fatalf("candidate %d has rank %d", i, c.Rank)
		}
	}
}

func TestNormalizeKeepsModelOrderOnTies(t *testing.T) {
	out := Normalize([]Candidate{
		{FileName: "zeta.pdf", Score: 80},
		{FileName: "alpha.pdf", Score: 80},
	})
	if out[0].FileName != "zeta.pdf" || out[1].FileName != "alpha.pdf" {
		t.Fatalf("tie order not preserved: %+v", out)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	out := Normalize([]Candidate{
		{FileName: "jane_doe-resume.pdf", Score: 70, RedFlags: []string{"a", "b", "c"}},
	})
	c := out[0]
	if c.Name != "jane doe resume" {
		t.Fatalf("name fallback = %q", c.Name)
	}
	if len(c.RedFlags) != maxRedFlags {
		t.Fatalf("red flags not capped: %v", c.RedFlags)
	}
	if c.Reasons == nil || c.Links == nil || c.Citations == nil {
		t.Fatalf("nil slices not defaulted: %+v", c)
	}
}

func TestParseAcceptsFencedJSON(t *testing.T) {
	raw := "```json\n{\"candidates\":[{\"fileName\":\"a.pdf\",\"score\":80,\"reasons\":[\"go\"]}]}\n```"
	candidates, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(candidates) != 1 || candidates[0].FileName != "a.pdf" {
		t.Fatalf("unexpected candidates %+v", candidates)
	}
}

func TestParseRejectsMalformedOutput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose", "Here are the best candidates: Alice and Bob."},
		{"missing candidates", `{"results":[]}`},
		{"candidate without file", `{"candidates":[{"name":"Alice","score":90}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			if err == nil {
				t.Fatal("expected error")
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
		})
	}
}
