package fetcher

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gitlab-utils/jobs-logs-downloader/internal/config"
	"github.com/gitlab-utils/jobs-logs-downloader/internal/fileio"
	"github.com/gitlab-utils/jobs-logs-downloader/internal/gitlab"
)

// API is the subset of the GitLab client consumed by the fetcher.
type API interface {
	GetProject(ctx context.Context) (*gitlab.Project, error)
	ListPipelineJobs(ctx context.Context) ([]gitlab.JobSummary, error)
	GetJob(ctx context.Context, jobID int64) (*gitlab.Job, error)
	DownloadTrace(ctx context.Context, jobID int64) (io.ReadCloser, error)
}

// Jobs in these states will never produce a trace during this run.
var skipStatuses = map[string]bool{
	gitlab.StatusPending:   true,
	gitlab.StatusManual:    true,
	gitlab.StatusScheduled: true,
	gitlab.StatusSkipped:   true,
	gitlab.StatusCreated:   true,
}

// Fetcher downloads the execution log of every job of one pipeline in a
// single sequential pass. Per-job faults (timeouts, missing traces, failed
// downloads) are logged and skipped; only filesystem faults abort the run.
type Fetcher struct {
	cfg    *config.Config
	client API
	writer *fileio.Writer

	now   func() time.Time
	sleep func(time.Duration)
}

func New(cfg *config.Config, client API, writer *fileio.Writer) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		client: client,
		writer: writer,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Run performs the single pass: resolve the project, list the pipeline's jobs
// in ascending ID order, then process each one. The returned error is always
// fatal for the process.
func (f *Fetcher) Run(ctx context.Context) error {
	project, err := f.client.GetProject(ctx)
	if err != nil {
		return errors.Wrapf(err, "unknown gitlab project id %s", f.cfg.ProjectID)
	}
	zap.S().Infow("resolved gitlab project", "project", project.Name)

	jobs, err := f.client.ListPipelineJobs(ctx)
	if err != nil {
		return errors.Wrapf(err, "unknown gitlab pipeline id %s for project %s", f.cfg.PipelineID, project.Name)
	}
	zap.S().Infow("retrieved pipeline jobs", "count", len(jobs), "project", project.Name)

	for _, summary := range jobs {
		if err := f.processJob(ctx, project, summary); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fetcher) processJob(ctx context.Context, project *gitlab.Project, summary gitlab.JobSummary) error {
	job, err := f.client.GetJob(ctx, summary.ID)
	if err != nil {
		// same outcome as a job with no usable status or artifacts
		zap.S().Warnw("failed to fetch job detail, skipping", "job", summary.Name, "stage", summary.Stage, "error", err)
		return nil
	}

	if skipStatuses[job.Status] {
		zap.S().Infow("skipping job", "job", job.Name, "stage", job.Stage, "status", job.Status)
		return nil
	}

	job, ok := f.waitWhileRunning(ctx, job)
	if !ok {
		return nil
	}

	job, ok = f.waitForTrace(ctx, job)
	if !ok {
		return nil
	}

	return f.download(ctx, project, job)
}

// waitWhileRunning polls until the job leaves the running state. The sleep
// between checks is intentionally the running-job timeout itself, not the
// shorter check interval, so a run re-checks a running job exactly once.
func (f *Fetcher) waitWhileRunning(ctx context.Context, job *gitlab.Job) (*gitlab.Job, bool) {
	start := f.now()
	for job.Status == gitlab.StatusRunning {
		if f.now().Sub(start) >= f.cfg.RunningJobTimeout() {
			zap.S().Warnw("job still running after timeout, abandoning", "job", job.Name, "stage", job.Stage, "timeout", f.cfg.RunningJobTimeout())
			return nil, false
		}
		zap.S().Infow("job still running", "job", job.Name, "stage", job.Stage)
		f.sleep(f.cfg.RunningJobTimeout())

		fresh, err := f.client.GetJob(ctx, job.ID)
		if err != nil {
			zap.S().Warnw("failed to re-fetch running job, abandoning", "job", job.Name, "stage", job.Stage, "error", err)
			return nil, false
		}
		job = fresh
	}
	return job, true
}

// waitForTrace polls until the job exposes a trace artifact or the end-job
// timeout elapses.
func (f *Fetcher) waitForTrace(ctx context.Context, job *gitlab.Job) (*gitlab.Job, bool) {
	start := f.now()
	for !job.HasTrace() {
		if f.now().Sub(start) >= f.cfg.EndJobTimeout() {
			zap.S().Warnw("no logs for job after timeout, abandoning", "job", job.Name, "stage", job.Stage, "timeout", f.cfg.EndJobTimeout())
			return nil, false
		}
		zap.S().Infow("no logs for job yet", "job", job.Name, "stage", job.Stage)
		f.sleep(f.cfg.JobCheckInterval())

		fresh, err := f.client.GetJob(ctx, job.ID)
		if err != nil {
			zap.S().Warnw("failed to re-fetch job artifacts, abandoning", "job", job.Name, "stage", job.Stage, "error", err)
			return nil, false
		}
		job = fresh
	}
	return job, true
}

func (f *Fetcher) download(ctx context.Context, project *gitlab.Project, job *gitlab.Job) error {
	zap.S().Infow("downloading job logs", "job", job.Name, "stage", job.Stage, "project", project.Name)

	trace, err := f.client.DownloadTrace(ctx, job.ID)
	if err != nil {
		zap.S().Warnw("unable to download job logs", "job", job.Name, "stage", job.Stage, "error", err)
		return nil
	}
	defer trace.Close()

	dest := filepath.Join(f.cfg.Directory, Filename(project.Name, job.Stage, job.Name, f.cfg.FilenameDelimiter))
	if err := f.writer.WriteStream(dest, trace); err != nil {
		// missing directory or denied permission: environment
		// misconfiguration, abort the whole run
		return errors.Wrapf(err, "writing job logs to %s", f.writer.PathFor(dest))
	}

	zap.S().Infow("job logs written", "job", job.Name, "stage", job.Stage, "destination", f.writer.PathFor(dest))
	return nil
}
