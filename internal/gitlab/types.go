package gitlab

// Job statuses as reported by the GitLab API. The enum is open on the remote
// side; unknown values flow through untouched.
const (
	StatusPending   = "pending"
	StatusManual    = "manual"
	StatusScheduled = "scheduled"
	StatusSkipped   = "skipped"
	StatusCreated   = "created"
	StatusRunning   = "running"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// TraceFileType marks the artifact that holds a job's execution log.
const TraceFileType = "trace"

// Project is the subset of the project document consumed by this tool.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// JobSummary comes from the paginated jobs-of-pipeline endpoint. It is only
// used to obtain the set of job IDs to process.
type JobSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Stage string `json:"stage"`
}

type Artifact struct {
	FileType string `json:"file_type"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Job is the full job document, re-fetched per job to get live status and
// artifacts.
type Job struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Stage     string     `json:"stage"`
	Status    string     `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
}

// HasTrace reports whether the job exposes a downloadable execution log.
func (j *Job) HasTrace() bool {
	for _, a := range j.Artifacts {
		if a.FileType == TraceFileType {
			return true
		}
	}
	return false
}
