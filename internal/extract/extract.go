package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"screener-backend/internal/shared/storage/object"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedType is returned for mime types the extractor cannot handle.
var ErrUnsupportedType = errors.New("unsupported mime type")

// Result is the extracted text of one document plus the page layout needed
// for citation page estimation.
type Result struct {
	Text string
	// PageCount is 1 for formats without page structure (DOCX).
	PageCount int
	// PageOffsets holds the character offset at which each page after the
	// first starts in Text. Empty when there is a single page.
	PageOffsets []int
}

// FromStore pulls a stored object and extracts its text.
func FromStore(ctx context.Context, store object.ObjectStore, storageKey, mimeType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return Result{}, fmt.Errorf("extract key=%s mime=%s: %w", storageKey, mimeType, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Result{}, fmt.Errorf("extract key=%s mime=%s: read: %w", storageKey, mimeType, err)
	}

	res, err := FromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return Result{}, fmt.Errorf("extract key=%s mime=%s: %w", storageKey, mimeType, err)
	}
	return res, nil
}

// FromBytes extracts text from an in-memory payload.
func FromBytes(ctx context.Context, data []byte, mimeType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	switch normalizeMimeType(mimeType, fileName, data) {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

// Supported reports whether the extractor handles the given upload.
func Supported(mimeType, fileName string) bool {
	switch normalizeMimeType(mimeType, fileName, nil) {
	case mimePDF, mimeDOCX:
		return true
	}
	// Zip uploads are resolved against content at extraction time; accept
	// them here when the extension looks right.
	return strings.EqualFold(filepath.Ext(fileName), ".docx") || strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

// extractPDF walks the document page by page so that each page's start
// offset within the concatenated text is known.
func extractPDF(data []byte) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, err
	}

	numPages := reader.NumPage()
	var buf strings.Builder
	var offsets []int
	extracted := 0
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single damaged page should not sink the document.
			continue
		}
		if extracted > 0 {
			offsets = append(offsets, buf.Len())
		}
		buf.WriteString(text)
		buf.WriteString("\n")
		extracted++
	}

	pageCount := numPages
	if pageCount < 1 {
		pageCount = 1
	}
	return Result{
		Text:        buf.String(),
		PageCount:   pageCount,
		PageOffsets: offsets,
	}, nil
}

func extractDOCX(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return Result{}, errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Text:      stripDocxXML(string(raw)),
		PageCount: 1,
	}, nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "application/zip" && clean != "application/octet-stream" && clean != "" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return mimeDOCX
	case ".pdf":
		return mimePDF
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return mimeDOCX
		}
	}
	return ""
}
