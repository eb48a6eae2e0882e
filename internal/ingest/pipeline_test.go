package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"screener-backend/internal/chunker"
	"screener-backend/internal/chunks"
	"screener-backend/internal/documents"
	"screener-backend/internal/shared/storage/object/local"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	_ = ctx
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var doc strings.Builder
	doc.WriteString(`<w:document><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(doc.String())); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	pipeline *Pipeline
	docs     *documents.MemoryRepo
	chunks   *chunks.MemoryRepo
	embedder *fakeEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs:     documents.NewMemoryRepo(),
		chunks:   chunks.NewMemoryRepo(),
		embedder: &fakeEmbedder{},
	}
	f.pipeline = &Pipeline{
		Documents: f.docs,
		Chunks:    f.chunks,
		Store:     local.New(t.TempDir()),
		Embedder:  f.embedder,
		Splitter:  chunker.NewSplitter(50, 10),
	}
	return f
}

func (f *fixture) seedDocument(t *testing.T, payload []byte, fileName, mimeType string) documents.Document {
	t.Helper()
	ctx := context.Background()
	key, size, _, err := f.pipeline.Store.Save(ctx, "u1", fileName, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("save object: %v", err)
	}
	doc := documents.Document{
		ID:         "doc-1",
		JobID:      "job-1",
		UserID:     "u1",
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: key,
		Status:     documents.StatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}
	if err := f.docs.Create(ctx, doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func TestProcessMarksDocumentReady(t *testing.T) {
	f := newFixture(t)
	payload := docxBytes(t, "Alice Example", "Senior Go engineer with Postgres and Kubernetes experience across several production platforms.")
	doc := f.seedDocument(t, payload, "alice.docx", docxMime)

	if err := f.pipeline.Process(context.Background(), doc.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	stored, err := f.docs.GetAny(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("GetAny: %v", err)
	}
	if stored.Status != documents.StatusReady {
		t.Fatalf("status = %q, want ready (%s)", stored.Status, stored.ErrorMessage)
	}
	if stored.PageCount != 1 {
		t.Fatalf("page count = %d", stored.PageCount)
	}
	if !strings.Contains(stored.ExtractedText, "Senior Go engineer") {
		t.Fatalf("extracted text not stored: %q", stored.ExtractedText)
	}

	count, err := f.chunks.CountByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("CountByDocument: %v", err)
	}
	if count == 0 {
		t.Fatal("expected chunks stored")
	}
}

func TestProcessEmptyDocumentFails(t *testing.T) {
	f := newFixture(t)
	doc := f.seedDocument(t, docxBytes(t, "   "), "empty.docx", docxMime)

	if err := f.pipeline.Process(context.Background(), doc.ID); err == nil {
		t.Fatal("expected error for empty document")
	}

	stored, _ := f.docs.GetAny(context.Background(), doc.ID)
	if stored.Status != documents.StatusFailed {
		t.Fatalf("status = %q, want failed", stored.Status)
	}
	if stored.ErrorMessage != msgNoText {
		t.Fatalf("error message = %q", stored.ErrorMessage)
	}
}

func TestProcessEmbedFailureLeavesNoChunks(t *testing.T) {
	f := newFixture(t)
	f.embedder.err = errors.New("embeddings down")
	doc := f.seedDocument(t, docxBytes(t, "plenty of meaningful resume text here"), "alice.docx", docxMime)

	if err := f.pipeline.Process(context.Background(), doc.ID); err == nil {
		t.Fatal("expected embed error")
	}

	stored, _ := f.docs.GetAny(context.Background(), doc.ID)
	if stored.Status != documents.StatusFailed {
		t.Fatalf("status = %q, want failed", stored.Status)
	}
	count, _ := f.chunks.CountByDocument(context.Background(), doc.ID)
	if count != 0 {
		t.Fatalf("failed ingest must store no chunks, got %d", count)
	}
}

func TestProcessUnreadableFileFails(t *testing.T) {
	f := newFixture(t)
	doc := f.seedDocument(t, []byte("not a real pdf"), "broken.pdf", "application/pdf")

	if err := f.pipeline.Process(context.Background(), doc.ID); err == nil {
		t.Fatal("expected extract error")
	}

	stored, _ := f.docs.GetAny(context.Background(), doc.ID)
	if stored.Status != documents.StatusFailed || stored.ErrorMessage != msgExtractFailed {
		t.Fatalf("unexpected document state %+v", stored)
	}
}

func TestProcessMissingDocumentIsNoop(t *testing.T) {
	f := newFixture(t)
	if err := f.pipeline.Process(context.Background(), "gone"); err != nil {
		t.Fatalf("expected nil for deleted document, got %v", err)
	}
	if f.embedder.calls != 0 {
		t.Fatal("embedder should not be called")
	}
}

func TestHandleMessageParsesAndRoutes(t *testing.T) {
	f := newFixture(t)
	payload := docxBytes(t, "resume content for message routing test")
	doc := f.seedDocument(t, payload, "alice.docx", docxMime)

	body := `{"documentId":"` + doc.ID + `","requestId":"r1","version":1}`
	if err := HandleMessage(context.Background(), f.pipeline, body); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	stored, _ := f.docs.GetAny(context.Background(), doc.ID)
	if stored.Status != documents.StatusReady {
		t.Fatalf("status = %q, want ready", stored.Status)
	}
}

func TestParseMessageErrors(t *testing.T) {
	if _, _, err := ParseMessage("  "); err == nil {
		t.Fatal("expected error for empty body")
	} else if _, ok := err.(ErrEmptyBody); !ok {
		t.Fatalf("expected ErrEmptyBody, got %T", err)
	}

	if _, _, err := ParseMessage("{broken"); err == nil {
		t.Fatal("expected error for bad json")
	} else if _, ok := err.(ErrDecode); !ok {
		t.Fatalf("expected ErrDecode, got %T", err)
	}

	if _, _, err := ParseMessage(`{"requestId":"r1"}`); err == nil {
		t.Fatal("expected error for missing document id")
	} else if _, ok := err.(ErrMissingDocumentID); !ok {
		t.Fatalf("expected ErrMissingDocumentID, got %T", err)
	}
}
