package jobs

import "time"

// Kind selects the screening persona used for a job's rankings.
const (
	KindJob        = "job"
	KindInternship = "internship"
)

// Job is a screening workspace: one role description plus the resumes
// uploaded against it.
type Job struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Kind        string
	CreatedAt   time.Time
}
