package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"
)

const privateTokenHeader = "PRIVATE-TOKEN"

// Client talks to the GitLab REST API (v4) for a single project/pipeline
// pair. One instance is reused for every call of a run.
type Client struct {
	baseURL    string
	token      string
	projectID  string
	pipelineID string
	httpClient *http.Client
}

func NewClient(baseURL, token, projectID, pipelineID string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		projectID:  projectID,
		pipelineID: pipelineID,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(privateTokenHeader, c.token)
	return c.httpClient.Do(req)
}

// GetProject resolves the project this run operates on.
func (c *Client) GetProject(ctx context.Context) (*Project, error) {
	resp, err := c.get(ctx, fmt.Sprintf("%s/projects/%s", c.baseURL, c.projectID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("get project %s: status code %d", c.projectID, resp.StatusCode)
	}

	var project Project
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return nil, errors.Wrap(err, "decoding project")
	}
	return &project, nil
}

// ListPipelineJobs retrieves every job of the pipeline, following Link-header
// pagination, and returns them sorted ascending by job ID so that processing
// order is reproducible regardless of the order the API returned them in.
func (c *Client) ListPipelineJobs(ctx context.Context) ([]JobSummary, error) {
	url := fmt.Sprintf("%s/projects/%s/pipelines/%s/jobs", c.baseURL, c.projectID, c.pipelineID)

	var jobs []JobSummary
	for url != "" {
		resp, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Errorf("list jobs of pipeline %s: status code %d", c.pipelineID, resp.StatusCode)
		}

		var page []JobSummary
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()
			return nil, errors.Wrap(err, "decoding pipeline jobs page")
		}
		jobs = append(jobs, page...)

		url = NextPageURL(resp.Header.Get("Link"))
		resp.Body.Close()
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs, nil
}

// GetJob re-fetches the full job document. Callers treat an error the same as
// a job with no usable status or artifacts.
func (c *Client) GetJob(ctx context.Context, jobID int64) (*Job, error) {
	resp, err := c.get(ctx, fmt.Sprintf("%s/projects/%s/jobs/%d", c.baseURL, c.projectID, jobID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("get job %d: status code %d", jobID, resp.StatusCode)
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, errors.Wrapf(err, "decoding job %d", jobID)
	}
	return &job, nil
}

// DownloadTrace streams the job's execution log. Redirects (to object
// storage, typically) are followed. The caller owns the returned body.
func (c *Client) DownloadTrace(ctx context.Context, jobID int64) (io.ReadCloser, error) {
	resp, err := c.get(ctx, fmt.Sprintf("%s/projects/%s/jobs/%d/trace", c.baseURL, c.projectID, jobID))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("download trace of job %d: status code %d", jobID, resp.StatusCode)
	}
	return resp.Body, nil
}
