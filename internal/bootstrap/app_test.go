package bootstrap

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"screener-backend/internal/documents"
	"screener-backend/internal/queue"
	"screener-backend/internal/shared/config"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	_ = ctx
	return []float32{float32(len(text)), 1}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := Build(config.Config{
		Env:               "dev",
		ObjectStoreType:   "local",
		LocalStoreDir:     t.TempDir(),
		CORSAllowOrigin:   []string{"http://localhost:5173"},
		ChunkTargetWords:  50,
		ChunkOverlapWords: 10,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	app.Pipeline.Embedder = stubEmbedder{}
	return app
}

func docxUpload(t *testing.T, text string) (*bytes.Buffer, string) {
	t.Helper()
	var doc bytes.Buffer
	zw := zip.NewWriter(&doc)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	xml := `<w:document><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "alice.docx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(doc.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func do(t *testing.T, app *App, method, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("X-Guest-Id", "e2e")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestUploadFlowThroughRouter(t *testing.T) {
	app := newTestApp(t)

	rec := do(t, app, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}

	jobBody := bytes.NewBufferString(`{"title":"Backend Engineer","description":"Go and Postgres","kind":"job"}`)
	rec = do(t, app, http.MethodPost, "/api/v1/jobs", "application/json", jobBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create job = %d body=%s", rec.Code, rec.Body.String())
	}
	var job struct {
		JobID string `json:"jobId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil || job.JobID == "" {
		t.Fatalf("job response: %v %s", err, rec.Body.String())
	}

	upload, contentType := docxUpload(t, "Senior Go engineer with years of Postgres and Kubernetes work on production platforms.")
	rec = do(t, app, http.MethodPost, "/api/v1/jobs/"+job.JobID+"/documents", contentType, upload)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload = %d body=%s", rec.Code, rec.Body.String())
	}

	app.Queue.(*queue.MemoryClient).Wait()

	rec = do(t, app, http.MethodGet, "/api/v1/jobs/"+job.JobID+"/documents", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list documents = %d", rec.Code)
	}
	var listed []struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode documents: %v %s", err, rec.Body.String())
	}
	if len(listed) != 1 || listed[0].Status != string(documents.StatusReady) {
		t.Fatalf("documents = %+v", listed)
	}
}

func TestUsageAndMetricsEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := do(t, app, http.MethodGet, "/api/v1/usage", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("usage = %d body=%s", rec.Code, rec.Body.String())
	}
	var snapshot struct {
		Tier  string `json:"tier"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	if snapshot.Tier != "free" {
		t.Fatalf("tier = %q", snapshot.Tier)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics without identity = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ingest") {
		t.Fatalf("metrics body missing counters: %s", rec.Body.String())
	}
}
