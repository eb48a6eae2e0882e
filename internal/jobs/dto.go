package jobs

import "time"

type jobResponse struct {
	JobID       string    `json:"jobId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toResponse(job Job) jobResponse {
	return jobResponse{
		JobID:       job.ID,
		Title:       job.Title,
		Description: job.Description,
		Kind:        job.Kind,
		CreatedAt:   job.CreatedAt,
	}
}
