package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/neighborcast/neighborcast-api/internal/core"
	domainjob "github.com/neighborcast/neighborcast-api/internal/domain/job"
	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
	"github.com/neighborcast/neighborcast-api/internal/observability/metrics"
	"github.com/neighborcast/neighborcast-api/internal/observability/statsd"
)

// ConfigActivator runs a cutover; JobService uses it for job-driven activation.
type ConfigActivator interface {
	Activate(ctx context.Context, configID, actor string) (*model.CutoverResult, error)
}

// JobServiceConfig holds the tunables of JobService.
type JobServiceConfig struct {
	ListDefaultLimit int                // default 10
	ListMaxLimit     int                // default 50
	Params           model.ParamsPolicy // per-type params validation knobs
}

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo      core.JobRepository          // Required: job repository
	Activator ConfigActivator             // Optional: required for activate_on_complete jobs
	Configs   core.WeightConfigRepository // Optional: checks activate_on_complete targets at submit
	Logger    *slog.Logger                // Optional: structured logger
	Metrics   statsd.Sink                 // Optional: job lifecycle metrics
	Config    JobServiceConfig
}

// JobService provides the submission, query, retry and executor-transition operations.
type JobService struct {
	repo      core.JobRepository
	activator ConfigActivator
	configs   core.WeightConfigRepository
	limits    *domainjob.LimitPolicy
	params    model.ParamsPolicy
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	def, ceil := opts.Config.ListDefaultLimit, opts.Config.ListMaxLimit
	if def == 0 {
		def = 10
	}
	if ceil == 0 {
		ceil = 50
	}
	limits, err := domainjob.NewLimitPolicy(def, ceil)
	if err != nil {
		return nil, fmt.Errorf("create limit policy: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobService{
		repo:      opts.Repo,
		activator: opts.Activator,
		configs:   opts.Configs,
		limits:    limits,
		params:    opts.Config.Params,
		logger:    logger.With("component", "job_service"),
		metrics:   opts.Metrics,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Submitter identifies who submits a job. CanActivate is set for principals
// allowed to change the active configuration.
type Submitter struct {
	ID          string
	CanActivate bool
}

// Submit validates the request and inserts a pending job on behalf of by.
func (s *JobService) Submit(ctx context.Context, req model.SubmitJobRequest, by Submitter) (*model.Job, error) {
	actor := strings.TrimSpace(by.ID)
	if actor == "" {
		return nil, apperrors.Unauthorized("submitter identity is required")
	}
	params, err := model.DecodeJobParams(req.Type, req.Params, s.params)
	if err != nil {
		return nil, err
	}
	if err := s.checkActivation(ctx, params, by); err != nil {
		return nil, err
	}
	raw, err := model.EncodeJobParams(params)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidRequest, "encode params")
	}

	job, err := s.repo.Create(ctx, &model.CreateJobRequest{
		Type:       req.Type,
		Params:     raw,
		MaxRetries: domainjob.RetryBudget(req.Type),
		CreatedBy:  actor,
	})
	if err != nil {
		s.emit(metrics.JobMetric{JobType: string(req.Type), Transition: metrics.TransitionSubmit, Result: metrics.ResultError, Err: err})
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.emit(metrics.JobMetric{JobType: string(job.Type), Transition: metrics.TransitionSubmit, Result: metrics.ResultSuccess})

	s.logger.InfoContext(ctx, "job submitted", "id", job.ID, "type", job.Type, "created_by", actor)
	return job, nil
}

// checkActivation guards recompute jobs that cut the active configuration over
// on completion: only admins may schedule one, and the target must exist now.
func (s *JobService) checkActivation(ctx context.Context, params model.JobParams, by Submitter) error {
	p, ok := params.(*model.RecomputeFinalScoresParams)
	if !ok || !p.ActivateOnComplete {
		return nil
	}
	if !by.CanActivate {
		return apperrors.Forbidden("activate_on_complete requires the admin role")
	}
	if s.activator == nil {
		return apperrors.InvalidField("params.activate_on_complete", "activation is not available on this server")
	}
	if s.configs == nil {
		return nil
	}
	if _, err := s.configs.GetByID(ctx, p.WeightConfigID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.InvalidField("params.weight_config_id",
				fmt.Sprintf("weight config %s does not exist", p.WeightConfigID))
		}
		return fmt.Errorf("check weight config: %w", err)
	}
	return nil
}

// Get returns the job with id.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	if err := requireJobID(id); err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobsParams is the raw listing request; filters are validated here.
type ListJobsParams struct {
	Type   string
	Status string
	Limit  int
}

// List returns the most recent jobs, optionally filtered by type and status.
func (s *JobService) List(ctx context.Context, p ListJobsParams) ([]*model.Job, error) {
	limit := s.limits.Resolve(p.Limit)
	if limit.Source == domainjob.LimitSourceClamped {
		s.logger.DebugContext(ctx, "job list limit clamped", "requested", limit.Requested, "limit", limit.Limit)
	}
	opts := model.JobListOptions{Limit: limit.Limit}
	if p.Type != "" {
		var t model.JobType
		if err := t.UnmarshalText([]byte(p.Type)); err != nil {
			return nil, apperrors.InvalidField("type", fmt.Sprintf("unknown job type %q", p.Type))
		}
		opts.Type = &t
	}
	if p.Status != "" {
		var st model.JobStatus
		if err := st.UnmarshalText([]byte(p.Status)); err != nil {
			return nil, apperrors.InvalidField("status", fmt.Sprintf("unknown job status %q", p.Status))
		}
		opts.Status = &st
	}

	jobs, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes a pending or running job. Terminal jobs are kept for the audit trail.
func (s *JobService) Delete(ctx context.Context, id string) error {
	if err := requireJobID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	s.logger.InfoContext(ctx, "job deleted", "id", id)
	return nil
}

// Retry clones a failed or cancelled job as a new pending job. The source is never modified.
func (s *JobService) Retry(ctx context.Context, id, actor string) (*model.Job, error) {
	if err := requireJobID(id); err != nil {
		return nil, err
	}
	src, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("retry job: %w", err)
	}
	if !domainjob.Retryable(src.Status) {
		return nil, apperrors.InvalidStatef("job %s is %s; only error or cancelled jobs can be retried",
			src.ID, src.Status)
	}

	// The store re-checks the status in the same statement that inserts the clone.
	job, err := s.repo.CreateRetry(ctx, model.RetryJobRequest{
		SourceID:   src.ID,
		MaxRetries: domainjob.RetryBudget(src.Type),
		CreatedBy:  actor,
	})
	if err != nil {
		return nil, fmt.Errorf("retry job: %w", err)
	}
	s.emit(metrics.JobMetric{JobType: string(job.Type), Transition: metrics.TransitionRetry, Result: metrics.ResultSuccess})

	s.logger.InfoContext(ctx, "job retried", "source_id", src.ID, "id", job.ID, "type", job.Type)
	return job, nil
}

// Stats aggregates status and type tallies with success rate and mean duration.
func (s *JobService) Stats(ctx context.Context) (model.JobStats, error) {
	samples, err := s.repo.StatSamples(ctx)
	if err != nil {
		return model.JobStats{}, fmt.Errorf("job stats: %w", err)
	}
	return domainjob.Aggregate(samples), nil
}

// Claim moves the oldest pending job of the type to running. ok is false when the queue is empty.
func (s *JobService) Claim(ctx context.Context, jobType string) (*model.Job, bool, error) {
	var t model.JobType
	if err := t.UnmarshalText([]byte(jobType)); err != nil {
		return nil, false, apperrors.InvalidField("type", fmt.Sprintf("unknown job type %q", jobType))
	}
	job, err := s.repo.Claim(ctx, t)
	if errors.Is(err, model.ErrNoJobsAvailable) {
		s.emit(metrics.JobMetric{JobType: string(t), Transition: metrics.TransitionClaim, Result: metrics.ResultNoop})
		return nil, false, nil
	}
	if err != nil {
		s.emit(metrics.JobMetric{JobType: string(t), Transition: metrics.TransitionClaim, Result: metrics.ResultError, Err: err})
		return nil, false, fmt.Errorf("claim job: %w", err)
	}
	s.emit(metrics.JobMetric{JobType: string(t), Transition: metrics.TransitionClaim, Result: metrics.ResultSuccess})
	s.logger.DebugContext(ctx, "job claimed", "id", job.ID, "type", job.Type)
	return job, true, nil
}

// CompleteResult is a completed job plus the cutover it triggered, if any.
// CutoverError is set when the job committed but its cutover did not.
type CompleteResult struct {
	Job          *model.Job           `json:"job"`
	Cutover      *model.CutoverResult `json:"cutover,omitempty"`
	CutoverError string               `json:"cutover_error,omitempty"`
}

// Progress records how far a running job has got.
func (s *JobService) Progress(ctx context.Context, req *model.ProgressJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.InvalidRequest("progress report is required")
	}
	if err := requireJobID(req.JobID); err != nil {
		return nil, err
	}
	if req.Processed < 0 {
		return nil, apperrors.InvalidField("processed", "must be non-negative")
	}
	if req.Total != nil {
		if *req.Total < 0 {
			return nil, apperrors.InvalidField("total", "must be non-negative")
		}
		if req.Processed > *req.Total {
			return nil, apperrors.InvalidField("processed", "must not exceed total")
		}
	}

	job, err := s.repo.UpdateProgress(ctx, req)
	if err != nil {
		s.emit(metrics.JobMetric{Transition: metrics.TransitionProgress, Result: metrics.ResultError, Err: err})
		return nil, fmt.Errorf("update job progress: %w", err)
	}
	s.emit(metrics.JobMetric{JobType: string(job.Type), Transition: metrics.TransitionProgress, Result: metrics.ResultSuccess})
	s.logger.DebugContext(ctx, "job progress", "id", job.ID, "progress", job.Progress, "total", job.Total)
	return job, nil
}

// Complete marks a running job completed. A recompute_final_scores job that
// asks for activation cuts the active configuration over before returning.
// The completion stands even when that cutover fails; the failure is
// reported in CutoverError.
func (s *JobService) Complete(ctx context.Context, id string) (*CompleteResult, error) {
	if err := requireJobID(id); err != nil {
		return nil, err
	}
	job, err := s.repo.Complete(ctx, id)
	if err != nil {
		s.emit(metrics.JobMetric{Transition: metrics.TransitionComplete, Result: metrics.ResultError, Err: err})
		return nil, fmt.Errorf("complete job: %w", err)
	}
	s.emit(metrics.JobMetric{
		JobType:    string(job.Type),
		Transition: metrics.TransitionComplete,
		Result:     metrics.ResultSuccess,
		Duration:   metrics.RunDuration(job),
	})
	s.logger.InfoContext(ctx, "job completed", "id", job.ID, "type", job.Type)

	res := &CompleteResult{Job: job}
	configID, activate := activationTarget(job)
	if !activate {
		return res, nil
	}
	var cut *model.CutoverResult
	if s.activator == nil {
		err = errors.New("no activator configured")
	} else {
		cut, err = s.activator.Activate(ctx, configID, "job:"+job.ID)
	}
	if err != nil {
		s.emit(metrics.JobMetric{
			JobType:    string(job.Type),
			Transition: metrics.TransitionActivate,
			Result:     metrics.ResultError,
			Err:        err,
		})
		s.logger.ErrorContext(ctx, "cutover after job completion failed",
			"id", job.ID, "config_id", configID, "error", err)
		res.CutoverError = err.Error()
		return res, nil
	}
	s.emit(metrics.JobMetric{JobType: string(job.Type), Transition: metrics.TransitionActivate, Result: metrics.ResultSuccess})
	res.Cutover = cut
	return res, nil
}

// activationTarget reports whether a completed job should trigger a cutover.
func activationTarget(job *model.Job) (string, bool) {
	if job.Type != model.JobTypeRecomputeFinalScores {
		return "", false
	}
	var p model.RecomputeFinalScoresParams
	if err := json.Unmarshal(job.Params, &p); err != nil {
		return "", false
	}
	return p.WeightConfigID, p.ActivateOnComplete && p.WeightConfigID != ""
}

// Fail records an executor failure. A transient failure with budget left
// requeues the job; anything else moves it to error.
func (s *JobService) Fail(ctx context.Context, req *model.FailJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.InvalidRequest("failure report is required")
	}
	if err := requireJobID(req.JobID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Error) == "" {
		return nil, apperrors.InvalidField("error", "is required")
	}
	in := *req
	in.Error = model.TruncateErrorMessage(in.Error)

	job, err := s.repo.Fail(ctx, &in)
	if err != nil {
		s.emit(metrics.JobMetric{Transition: metrics.TransitionFail, Result: metrics.ResultError, Err: err})
		return nil, fmt.Errorf("fail job: %w", err)
	}
	if job.Status == model.JobStatusPending {
		s.emit(metrics.JobMetric{JobType: string(job.Type), Transition: metrics.TransitionRequeue, Result: metrics.ResultSuccess})
		s.logger.WarnContext(ctx, "job requeued after transient failure",
			"id", job.ID, "type", job.Type, "retry_count", job.RetryCount, "max_retries", job.MaxRetries)
	} else {
		s.emit(metrics.JobMetric{
			JobType:    string(job.Type),
			Transition: metrics.TransitionFail,
			Result:     metrics.ResultSuccess,
			Duration:   metrics.RunDuration(job),
		})
		s.logger.WarnContext(ctx, "job failed", "id", job.ID, "type", job.Type, "error", in.Error)
	}
	return job, nil
}

// Cancel applies the external cancellation signal to a pending or running job.
func (s *JobService) Cancel(ctx context.Context, id string) (*model.Job, error) {
	if err := requireJobID(id); err != nil {
		return nil, err
	}
	job, err := s.repo.Cancel(ctx, id)
	if err != nil {
		s.emit(metrics.JobMetric{Transition: metrics.TransitionCancel, Result: metrics.ResultError, Err: err})
		return nil, fmt.Errorf("cancel job: %w", err)
	}
	s.emit(metrics.JobMetric{JobType: string(job.Type), Transition: metrics.TransitionCancel, Result: metrics.ResultSuccess})
	s.logger.InfoContext(ctx, "job cancelled", "id", job.ID, "type", job.Type)
	return job, nil
}

func (s *JobService) emit(m metrics.JobMetric) {
	metrics.EmitJobLifecycle(s.metrics, m)
}

// requireJobID rejects ids that cannot name a job. Job ids are UUIDs, so
// anything else is reported as not found.
func requireJobID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NotFoundf("job %s not found", id)
	}
	return nil
}
