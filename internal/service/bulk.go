package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/neighborcast/neighborcast-api/internal/core"
	domainjob "github.com/neighborcast/neighborcast-api/internal/domain/job"
	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

// Preview sample bounds.
const (
	DefaultPreviewSample = 20
	MaxPreviewSample     = 100
)

// ActiveConfigReader resolves the active configuration id.
type ActiveConfigReader interface {
	Get(ctx context.Context) (string, bool, error)
}

// BulkServiceConfig holds the tunables of BulkService.
type BulkServiceConfig struct {
	MaxIDs        int // resolver cap, at most model.MaxBulkIDs
	PreviewSample int // default preview sample size
}

// BulkServiceOptions groups dependencies for BulkService.
type BulkServiceOptions struct {
	Stores BulkStores         // Required: post and job stores
	Active ActiveConfigReader // Required: active-configuration cache
	Logger *slog.Logger       // Optional: structured logger
	Config BulkServiceConfig
}

// BulkStores bundles the stores used by bulk flows.
type BulkStores struct {
	Posts core.PostQueryRepository
	Jobs  core.JobRepository
}

// BulkService resolves BulkQuerySpecs and applies actions to the matched posts.
// Count, Preview and Apply all go through Resolve so they agree on the match set.
type BulkService struct {
	posts   core.PostQueryRepository
	jobs    core.JobRepository
	active  ActiveConfigReader
	maxIDs  int
	preview int
	logger  *slog.Logger
}

// NewBulkService constructs a BulkService.
func NewBulkService(opts BulkServiceOptions) (*BulkService, error) {
	if opts.Stores.Posts == nil {
		return nil, errors.New("PostQueryRepository is required")
	}
	if opts.Stores.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Active == nil {
		return nil, errors.New("ActiveConfigReader is required")
	}
	maxIDs := opts.Config.MaxIDs
	if maxIDs <= 0 || maxIDs > model.MaxBulkIDs {
		maxIDs = model.MaxBulkIDs
	}
	preview := opts.Config.PreviewSample
	if preview <= 0 {
		preview = DefaultPreviewSample
	}
	preview = min(preview, MaxPreviewSample)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkService{
		posts:   opts.Stores.Posts,
		jobs:    opts.Stores.Jobs,
		active:  opts.Active,
		maxIDs:  maxIDs,
		preview: preview,
		logger:  logger.With("component", "bulk_service"),
	}, nil
}

// Resolve returns the ordered ids matching spec, at most the configured cap.
func (s *BulkService) Resolve(ctx context.Context, spec model.BulkQuerySpec) (*model.BulkResolution, error) {
	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	q := model.ResolvedPostQuery{Spec: spec, Limit: s.maxIDs + 1}
	if spec.Sort.RequiresActiveConfig() {
		id, ok, err := s.active.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve bulk query: %w", err)
		}
		if !ok {
			return nil, apperrors.NoActiveConfiguration()
		}
		q.WeightConfigID = id
	}

	ids, err := s.posts.ResolveIDs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("resolve bulk query: %w", err)
	}
	res := &model.BulkResolution{IDs: ids}
	if len(ids) > s.maxIDs {
		res.IDs = ids[:s.maxIDs]
		res.Truncated = true
	}
	return res, nil
}

// Count reports how many posts an apply with the same spec would touch.
func (s *BulkService) Count(ctx context.Context, spec model.BulkQuerySpec) (*model.BulkCountResult, error) {
	res, err := s.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}
	return &model.BulkCountResult{Count: len(res.IDs), Truncated: res.Truncated}, nil
}

// Preview is Count plus the first sample ids. sample <= 0 uses the configured default.
func (s *BulkService) Preview(ctx context.Context, spec model.BulkQuerySpec, sample int) (*model.BulkPreviewResult, error) {
	if sample <= 0 {
		sample = s.preview
	}
	if sample > MaxPreviewSample {
		return nil, apperrors.InvalidField("sample", fmt.Sprintf("must be at most %d", MaxPreviewSample))
	}
	res, err := s.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}
	n := min(sample, len(res.IDs))
	return &model.BulkPreviewResult{
		Count:     len(res.IDs),
		Truncated: res.Truncated,
		IDs:       append([]string{}, res.IDs[:n]...),
	}, nil
}

// Apply runs action on every post matching spec.
func (s *BulkService) Apply(
	ctx context.Context,
	spec model.BulkQuerySpec,
	action model.BulkAction,
	actor string,
) (*model.BulkApplyResult, error) {
	if !action.Valid() {
		return nil, apperrors.InvalidField("action", fmt.Sprintf("unknown action %q", action))
	}
	res, err := s.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}
	out, err := s.execute(ctx, res.IDs, action, actor)
	if err != nil {
		return nil, err
	}
	out.Truncated = res.Truncated
	return out, nil
}

// ApplyToIDs runs action on an explicit selection. Ids must be UUIDs; duplicates
// are dropped in order and ids that no longer exist are counted as skipped.
func (s *BulkService) ApplyToIDs(
	ctx context.Context,
	ids []string,
	action model.BulkAction,
	actor string,
) (*model.BulkApplyResult, error) {
	if !action.Valid() {
		return nil, apperrors.InvalidField("action", fmt.Sprintf("unknown action %q", action))
	}
	if len(ids) == 0 {
		return nil, apperrors.InvalidField("ids", "must not be empty")
	}
	unique, err := s.normalizeIDs(ids)
	if err != nil {
		return nil, err
	}

	if action.FlagColumn() != "" {
		return s.execute(ctx, unique, action, actor)
	}

	existing, err := s.posts.ExistingIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("apply bulk action: %w", err)
	}
	out, err := s.execute(ctx, existing, action, actor)
	if err != nil {
		return nil, err
	}
	out.Matched = len(unique)
	out.Skipped += len(unique) - len(existing)
	return out, nil
}

func (s *BulkService) normalizeIDs(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for i, raw := range ids {
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.InvalidField(fmt.Sprintf("ids[%d]", i), "must be a UUID")
		}
		id := u.String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > s.maxIDs {
		return nil, apperrors.InvalidField("ids", fmt.Sprintf("at most %d ids per request", s.maxIDs))
	}
	return out, nil
}

func (s *BulkService) execute(
	ctx context.Context,
	ids []string,
	action model.BulkAction,
	actor string,
) (*model.BulkApplyResult, error) {
	out := &model.BulkApplyResult{Action: action, Matched: len(ids), JobIDsQueued: []string{}}
	if len(ids) == 0 {
		return out, nil
	}

	if action == model.BulkActionReprocess {
		queued, skipped, err := s.queueReprocess(ctx, ids, actor)
		if err != nil {
			return nil, err
		}
		out.JobIDsQueued = queued
		out.Skipped = skipped
	} else {
		updated, err := s.posts.UpdateFlag(ctx, action, ids)
		if err != nil {
			return nil, fmt.Errorf("apply bulk action: %w", err)
		}
		out.Updated = updated
		out.Skipped = len(ids) - updated
	}

	s.logger.InfoContext(ctx, "bulk action applied",
		"action", action, "matched", out.Matched, "queued", len(out.JobIDsQueued),
		"updated", out.Updated, "skipped", out.Skipped, "actor", actor)
	return out, nil
}

// queueReprocess inserts one reprocess job per post without an active one, in one transaction.
func (s *BulkService) queueReprocess(ctx context.Context, ids []string, actor string) ([]string, int, error) {
	active, err := s.jobs.ActiveReprocessPostIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("apply bulk action: %w", err)
	}

	reqs := make([]*model.CreateJobRequest, 0, len(ids)-len(active))
	for _, id := range ids {
		if _, busy := active[id]; busy {
			continue
		}
		raw, encErr := model.EncodeJobParams(&model.ReprocessParams{PostID: id})
		if encErr != nil {
			return nil, 0, encErr
		}
		reqs = append(reqs, &model.CreateJobRequest{
			Type:       model.JobTypeReprocess,
			Params:     raw,
			MaxRetries: domainjob.RetryBudget(model.JobTypeReprocess),
			CreatedBy:  actor,
		})
	}

	queued := []string{}
	if len(reqs) > 0 {
		jobs, err := s.jobs.CreateMany(ctx, reqs)
		if err != nil {
			return nil, 0, fmt.Errorf("queue reprocess jobs: %w", err)
		}
		for _, j := range jobs {
			queued = append(queued, j.ID)
		}
	}
	return queued, len(ids) - len(reqs), nil
}
