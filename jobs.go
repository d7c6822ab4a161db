package leanvox

import (
	"context"
	"net/http"
	"time"
)

// jobPollInterval is the fixed wait between status polls.
const jobPollInterval = 2 * time.Second

// JobsService handles async generation jobs.
type JobsService struct {
	client *Client
}

// Get fetches the current state of a job.
func (s *JobsService) Get(ctx context.Context, jobID string) (*Job, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	return s.get(ctx, core, jobID)
}

func (s *JobsService) get(ctx context.Context, core *httpCore, jobID string) (*Job, error) {
	var job Job
	if err := core.requestJSON(ctx, http.MethodGet, "/v1/jobs/"+jobID, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns all async jobs for the account.
func (s *JobsService) List(ctx context.Context) ([]Job, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	var listing struct {
		Jobs []Job `json:"jobs"`
	}
	if err := core.requestJSON(ctx, http.MethodGet, "/v1/jobs", nil, &listing); err != nil {
		return nil, err
	}
	return listing.Jobs, nil
}

// Wait blocks until the job reaches a terminal status (completed or
// failed), polling at a fixed interval. The returned job carries the
// terminal state; inspect Status and Error yourself. Cancel ctx to stop
// waiting.
func (s *JobsService) Wait(ctx context.Context, jobID string) (*Job, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	job, err := s.get(ctx, core, jobID)
	if err != nil {
		return nil, err
	}
	return s.waitTerminal(ctx, core, job)
}

func (s *JobsService) waitTerminal(ctx context.Context, core *httpCore, job *Job) (*Job, error) {
	for !job.Status.Terminal() {
		if err := core.sleep(ctx, jobPollInterval); err != nil {
			return nil, err
		}
		var err error
		job, err = s.get(ctx, core, job.ID)
		if err != nil {
			return nil, err
		}
	}
	return job, nil
}
