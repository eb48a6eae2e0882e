package documents

import "time"

type documentResponse struct {
	DocumentID   string    `json:"documentId"`
	JobID        string    `json:"jobId"`
	FileName     string    `json:"fileName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	PageCount    int       `json:"pageCount,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func toResponse(doc Document) documentResponse {
	return documentResponse{
		DocumentID:   doc.ID,
		JobID:        doc.JobID,
		FileName:     doc.FileName,
		MimeType:     doc.MimeType,
		SizeBytes:    doc.SizeBytes,
		PageCount:    doc.PageCount,
		Status:       doc.Status,
		ErrorMessage: doc.ErrorMessage,
		UploadedAt:   doc.CreatedAt,
	}
}
