package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
	"github.com/neighborcast/neighborcast-api/internal/mocks"
)

func newTestJobService(t *testing.T, activator ConfigActivator) (*JobService, *mocks.MockJobRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	svc := MustNewJobService(JobServiceOptions{
		Repo:      repo,
		Activator: activator,
		Logger:    quietLogger(),
		Config:    JobServiceConfig{Params: model.ParamsPolicy{PermalinkDomains: []string{"nextdoor.com"}}},
	})
	return svc, repo
}

func TestNewJobService(t *testing.T) {
	_, err := NewJobService(JobServiceOptions{})
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	_, err = NewJobService(JobServiceOptions{
		Repo:   mocks.NewMockJobRepository(ctrl),
		Config: JobServiceConfig{ListDefaultLimit: 60, ListMaxLimit: 50},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create limit policy")
}

func TestJobService_Submit(t *testing.T) {
	tests := []struct {
		name       string
		req        model.SubmitJobRequest
		wantParams string
		wantMax    int
	}{
		{
			name:       "backfill gets retry budget",
			req:        model.SubmitJobRequest{Type: model.JobTypeBackfillDimension, Params: json.RawMessage(`{"dimension":"drama"}`)},
			wantParams: `{"dimension":"drama"}`,
			wantMax:    3,
		},
		{
			name:       "reprocess has no budget",
			req:        model.SubmitJobRequest{Type: model.JobTypeReprocess, Params: json.RawMessage(`{"post_id":"` + postID1 + `"}`)},
			wantParams: `{"post_id":"` + postID1 + `"}`,
			wantMax:    0,
		},
		{
			name:       "scraper defaults feed type",
			req:        model.SubmitJobRequest{Type: model.JobTypeRunScraper},
			wantParams: `{"feed_type":"recent"}`,
			wantMax:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestJobService(t, nil)
			repo.EXPECT().Create(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, req *model.CreateJobRequest) (*model.Job, error) {
					assert.Equal(t, tt.req.Type, req.Type)
					assert.JSONEq(t, tt.wantParams, string(req.Params))
					assert.Equal(t, tt.wantMax, req.MaxRetries)
					assert.Equal(t, "alice", req.CreatedBy)
					return testJob(jobID1, req.Type, model.JobStatusPending, string(req.Params)), nil
				})

			job, err := svc.Submit(context.Background(), tt.req, Submitter{ID: "alice"})
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusPending, job.Status)
		})
	}
}

func TestJobService_Submit_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		req   model.SubmitJobRequest
		actor string
		field string
	}{
		{"unknown type", model.SubmitJobRequest{Type: "explode"}, "alice", "type"},
		{"bad dimension", model.SubmitJobRequest{Type: model.JobTypeBackfillDimension, Params: json.RawMessage(`{"dimension":"vibes"}`)}, "alice", "params.dimension"},
		{"unknown field", model.SubmitJobRequest{Type: model.JobTypeReprocess, Params: json.RawMessage(`{"post_id":"` + postID1 + `","x":1}`)}, "alice", "params"},
		{"foreign permalink", model.SubmitJobRequest{Type: model.JobTypeFetchPermalink, Params: json.RawMessage(`{"url":"https://evil.example.com/p/1"}`)}, "alice", "params.url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestJobService(t, nil)
			_, err := svc.Submit(context.Background(), tt.req, Submitter{ID: tt.actor})
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidRequest(err), err)
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}

	svc, _ := newTestJobService(t, nil)
	_, err := svc.Submit(context.Background(), model.SubmitJobRequest{Type: model.JobTypeRunScraper}, Submitter{ID: " "})
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestJobService_Submit_StoreFailure(t *testing.T) {
	svc, repo := newTestJobService(t, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.StoreFailure(errors.New("connection reset"), "insert job"))

	_, err := svc.Submit(context.Background(), model.SubmitJobRequest{Type: model.JobTypeRunScraper}, Submitter{ID: "alice"})
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreFailure(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestJobService_Submit_ActivateOnComplete(t *testing.T) {
	req := model.SubmitJobRequest{
		Type:   model.JobTypeRecomputeFinalScores,
		Params: json.RawMessage(`{"weight_config_id":"` + cfgID + `","activate_on_complete":true}`),
	}
	admin := Submitter{ID: "root", CanActivate: true}

	newSvc := func(t *testing.T, activator ConfigActivator) (*JobService, *mocks.MockJobRepository, *mocks.MockWeightConfigRepository) {
		t.Helper()
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockJobRepository(ctrl)
		configs := mocks.NewMockWeightConfigRepository(ctrl)
		svc := MustNewJobService(JobServiceOptions{
			Repo:      repo,
			Activator: activator,
			Configs:   configs,
			Logger:    quietLogger(),
		})
		return svc, repo, configs
	}

	t.Run("user is forbidden", func(t *testing.T) {
		svc, _, _ := newSvc(t, &stubActivator{})
		_, err := svc.Submit(context.Background(), req, Submitter{ID: "alice"})
		require.Error(t, err)
		assert.True(t, apperrors.IsForbidden(err), err)
	})

	t.Run("user may recompute without activation", func(t *testing.T) {
		svc, repo, _ := newSvc(t, &stubActivator{})
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(testJob(jobID1, model.JobTypeRecomputeFinalScores, model.JobStatusPending, `{}`), nil)
		_, err := svc.Submit(context.Background(), model.SubmitJobRequest{
			Type:   model.JobTypeRecomputeFinalScores,
			Params: json.RawMessage(`{"weight_config_id":"` + cfgID + `"}`),
		}, Submitter{ID: "alice"})
		require.NoError(t, err)
	})

	t.Run("admin with existing config", func(t *testing.T) {
		svc, repo, configs := newSvc(t, &stubActivator{})
		gomock.InOrder(
			configs.EXPECT().GetByID(gomock.Any(), cfgID).Return(&model.WeightConfig{ID: cfgID}, nil),
			repo.EXPECT().Create(gomock.Any(), gomock.Any()).
				Return(testJob(jobID1, model.JobTypeRecomputeFinalScores, model.JobStatusPending, `{}`), nil),
		)
		job, err := svc.Submit(context.Background(), req, admin)
		require.NoError(t, err)
		assert.Equal(t, jobID1, job.ID)
	})

	t.Run("admin with missing config", func(t *testing.T) {
		svc, _, configs := newSvc(t, &stubActivator{})
		configs.EXPECT().GetByID(gomock.Any(), cfgID).Return(nil, apperrors.NotFound("weight config not found"))
		_, err := svc.Submit(context.Background(), req, admin)
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidRequest(err), err)
		assert.Equal(t, "params.weight_config_id", apperrors.GetField(err))
	})

	t.Run("config lookup failure", func(t *testing.T) {
		svc, _, configs := newSvc(t, &stubActivator{})
		configs.EXPECT().GetByID(gomock.Any(), cfgID).
			Return(nil, apperrors.StoreFailure(errors.New("timeout"), "get weight config"))
		_, err := svc.Submit(context.Background(), req, admin)
		assert.True(t, apperrors.IsStoreFailure(err), err)
	})

	t.Run("no activator", func(t *testing.T) {
		svc, _, _ := newSvc(t, nil)
		_, err := svc.Submit(context.Background(), req, admin)
		assert.True(t, apperrors.IsInvalidRequest(err), err)
		assert.Equal(t, "params.activate_on_complete", apperrors.GetField(err))
	})
}

func TestJobService_Get(t *testing.T) {
	svc, repo := newTestJobService(t, nil)
	repo.EXPECT().GetByID(gomock.Any(), jobID1).
		Return(testJob(jobID1, model.JobTypeRunScraper, model.JobStatusRunning, `{}`), nil)

	job, err := svc.Get(context.Background(), jobID1)
	require.NoError(t, err)
	assert.Equal(t, jobID1, job.ID)

	repo.EXPECT().GetByID(gomock.Any(), jobID2).Return(nil, apperrors.NotFound("job not found"))
	_, err = svc.Get(context.Background(), jobID2)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Get(context.Background(), "not-a-uuid")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobService_List(t *testing.T) {
	tests := []struct {
		name string
		in   ListJobsParams
		want func(t *testing.T, opts model.JobListOptions)
	}{
		{"default limit", ListJobsParams{}, func(t *testing.T, o model.JobListOptions) {
			assert.Equal(t, 10, o.Limit)
			assert.Nil(t, o.Type)
			assert.Nil(t, o.Status)
		}},
		{"clamped limit", ListJobsParams{Limit: 500}, func(t *testing.T, o model.JobListOptions) {
			assert.Equal(t, 50, o.Limit)
		}},
		{"filters", ListJobsParams{Type: "reprocess", Status: "error", Limit: 5}, func(t *testing.T, o model.JobListOptions) {
			require.NotNil(t, o.Type)
			require.NotNil(t, o.Status)
			assert.Equal(t, model.JobTypeReprocess, *o.Type)
			assert.Equal(t, model.JobStatusError, *o.Status)
			assert.Equal(t, 5, o.Limit)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestJobService(t, nil)
			repo.EXPECT().List(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, opts model.JobListOptions) ([]*model.Job, error) {
					tt.want(t, opts)
					return []*model.Job{}, nil
				})
			jobs, err := svc.List(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Empty(t, jobs)
		})
	}
}

func TestJobService_List_InvalidFilters(t *testing.T) {
	svc, _ := newTestJobService(t, nil)

	_, err := svc.List(context.Background(), ListJobsParams{Type: "nope"})
	assert.True(t, apperrors.IsInvalidRequest(err))
	assert.Equal(t, "type", apperrors.GetField(err))

	_, err = svc.List(context.Background(), ListJobsParams{Status: "done"})
	assert.True(t, apperrors.IsInvalidRequest(err))
	assert.Equal(t, "status", apperrors.GetField(err))
}

func TestJobService_Delete(t *testing.T) {
	svc, repo := newTestJobService(t, nil)

	repo.EXPECT().Delete(gomock.Any(), jobID1).Return(nil)
	require.NoError(t, svc.Delete(context.Background(), jobID1))

	repo.EXPECT().Delete(gomock.Any(), jobID2).Return(apperrors.InvalidState("job is completed"))
	err := svc.Delete(context.Background(), jobID2)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestJobService_Retry(t *testing.T) {
	tests := []struct {
		jobType model.JobType
		wantMax int
	}{
		{model.JobTypeRecomputeFinalScores, 3},
		{model.JobTypeBackfillDimension, 3},
		{model.JobTypeFetchPermalink, 0},
		{model.JobTypeReprocess, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.jobType), func(t *testing.T) {
			svc, repo := newTestJobService(t, nil)
			gomock.InOrder(
				repo.EXPECT().GetByID(gomock.Any(), jobID1).
					Return(testJob(jobID1, tt.jobType, model.JobStatusError, `{"k":"v"}`), nil),
				repo.EXPECT().CreateRetry(gomock.Any(), model.RetryJobRequest{
					SourceID: jobID1, MaxRetries: tt.wantMax, CreatedBy: "bob",
				}).Return(testJob(jobID2, tt.jobType, model.JobStatusPending, `{"k":"v"}`), nil),
			)

			job, err := svc.Retry(context.Background(), jobID1, "bob")
			require.NoError(t, err)
			assert.Equal(t, jobID2, job.ID)
			assert.Equal(t, model.JobStatusPending, job.Status)
		})
	}
}

func TestJobService_Retry_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc, repo := newTestJobService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), jobID1).Return(nil, apperrors.NotFound("job not found"))
		_, err := svc.Retry(context.Background(), jobID1, "bob")
		assert.True(t, apperrors.IsNotFound(err))
	})

	for _, st := range []model.JobStatus{model.JobStatusPending, model.JobStatusRunning, model.JobStatusCompleted} {
		t.Run(string(st), func(t *testing.T) {
			svc, repo := newTestJobService(t, nil)
			repo.EXPECT().GetByID(gomock.Any(), jobID1).
				Return(testJob(jobID1, model.JobTypeReprocess, st, `{}`), nil)
			_, err := svc.Retry(context.Background(), jobID1, "bob")
			assert.True(t, apperrors.IsInvalidState(err))
		})
	}

	t.Run("lost race", func(t *testing.T) {
		svc, repo := newTestJobService(t, nil)
		repo.EXPECT().GetByID(gomock.Any(), jobID1).
			Return(testJob(jobID1, model.JobTypeReprocess, model.JobStatusError, `{}`), nil)
		repo.EXPECT().CreateRetry(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.InvalidState("retry already queued"))
		_, err := svc.Retry(context.Background(), jobID1, "bob")
		assert.True(t, apperrors.IsInvalidState(err))
	})
}

func TestJobService_Stats(t *testing.T) {
	svc, repo := newTestJobService(t, nil)
	started := testNow
	done := testNow.Add(10 * time.Second)
	repo.EXPECT().StatSamples(gomock.Any()).Return([]model.JobStatSample{
		{Type: model.JobTypeReprocess, Status: model.JobStatusCompleted, StartedAt: &started, CompletedAt: &done},
		{Type: model.JobTypeReprocess, Status: model.JobStatusError},
	}, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalJobs)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	assert.Equal(t, int64(10), stats.AverageDurationSeconds)
}

func TestJobService_Claim(t *testing.T) {
	svc, repo := newTestJobService(t, nil)

	repo.EXPECT().Claim(gomock.Any(), model.JobTypeReprocess).
		Return(testJob(jobID1, model.JobTypeReprocess, model.JobStatusRunning, `{}`), nil)
	job, ok, err := svc.Claim(context.Background(), "reprocess")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, jobID1, job.ID)

	repo.EXPECT().Claim(gomock.Any(), model.JobTypeRunScraper).Return(nil, model.ErrNoJobsAvailable)
	job, ok, err = svc.Claim(context.Background(), "run_scraper")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, job)

	_, _, err = svc.Claim(context.Background(), "nope")
	assert.True(t, apperrors.IsInvalidRequest(err))
}

func TestJobService_Complete(t *testing.T) {
	t.Run("plain job", func(t *testing.T) {
		act := &stubActivator{}
		svc, repo := newTestJobService(t, act)
		repo.EXPECT().Complete(gomock.Any(), jobID1).
			Return(testJob(jobID1, model.JobTypeReprocess, model.JobStatusCompleted, `{}`), nil)

		res, err := svc.Complete(context.Background(), jobID1)
		require.NoError(t, err)
		assert.Nil(t, res.Cutover)
		assert.Empty(t, act.calls)
	})

	t.Run("recompute without activation", func(t *testing.T) {
		act := &stubActivator{}
		svc, repo := newTestJobService(t, act)
		repo.EXPECT().Complete(gomock.Any(), jobID1).Return(testJob(jobID1, model.JobTypeRecomputeFinalScores,
			model.JobStatusCompleted, `{"weight_config_id":"`+cfgID+`"}`), nil)

		res, err := svc.Complete(context.Background(), jobID1)
		require.NoError(t, err)
		assert.Nil(t, res.Cutover)
		assert.Empty(t, act.calls)
	})

	t.Run("recompute with activation", func(t *testing.T) {
		act := &stubActivator{}
		svc, repo := newTestJobService(t, act)
		repo.EXPECT().Complete(gomock.Any(), jobID1).Return(testJob(jobID1, model.JobTypeRecomputeFinalScores,
			model.JobStatusCompleted, `{"weight_config_id":"`+cfgID+`","activate_on_complete":true}`), nil)

		res, err := svc.Complete(context.Background(), jobID1)
		require.NoError(t, err)
		require.NotNil(t, res.Cutover)
		assert.Equal(t, cfgID, res.Cutover.ConfigID)
		assert.Equal(t, []string{cfgID + "|job:" + jobID1}, act.calls)
	})

	t.Run("activation failure keeps the completion", func(t *testing.T) {
		act := &stubActivator{err: apperrors.StoreFailure(errors.New("db down"), "upsert")}
		svc, repo := newTestJobService(t, act)
		repo.EXPECT().Complete(gomock.Any(), jobID1).Return(testJob(jobID1, model.JobTypeRecomputeFinalScores,
			model.JobStatusCompleted, `{"weight_config_id":"`+cfgID+`","activate_on_complete":true}`), nil)

		res, err := svc.Complete(context.Background(), jobID1)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, model.JobStatusCompleted, res.Job.Status)
		assert.Nil(t, res.Cutover)
		assert.Contains(t, res.CutoverError, "db down")
	})

	t.Run("no activator configured", func(t *testing.T) {
		svc, repo := newTestJobService(t, nil)
		repo.EXPECT().Complete(gomock.Any(), jobID1).Return(testJob(jobID1, model.JobTypeRecomputeFinalScores,
			model.JobStatusCompleted, `{"weight_config_id":"`+cfgID+`","activate_on_complete":true}`), nil)

		res, err := svc.Complete(context.Background(), jobID1)
		require.NoError(t, err)
		assert.Equal(t, "no activator configured", res.CutoverError)
	})

	t.Run("illegal transition", func(t *testing.T) {
		svc, repo := newTestJobService(t, nil)
		repo.EXPECT().Complete(gomock.Any(), jobID1).Return(nil, apperrors.InvalidState("job is pending"))
		_, err := svc.Complete(context.Background(), jobID1)
		assert.True(t, apperrors.IsInvalidState(err))
	})
}

func TestJobService_Progress(t *testing.T) {
	total := 40
	t.Run("records progress", func(t *testing.T) {
		svc, repo := newTestJobService(t, nil)
		repo.EXPECT().UpdateProgress(gomock.Any(), &model.ProgressJobRequest{JobID: jobID1, Processed: 12, Total: &total}).
			DoAndReturn(func(_ context.Context, req *model.ProgressJobRequest) (*model.Job, error) {
				j := testJob(jobID1, model.JobTypeBackfillDimension, model.JobStatusRunning, `{}`)
				j.Progress = req.Processed
				j.Total = req.Total
				return j, nil
			})

		job, err := svc.Progress(context.Background(), &model.ProgressJobRequest{JobID: jobID1, Processed: 12, Total: &total})
		require.NoError(t, err)
		assert.Equal(t, 12, job.Progress)
		require.NotNil(t, job.Total)
		assert.Equal(t, 40, *job.Total)
	})

	t.Run("not running", func(t *testing.T) {
		svc, repo := newTestJobService(t, nil)
		repo.EXPECT().UpdateProgress(gomock.Any(), gomock.Any()).Return(nil, apperrors.InvalidState("job is completed"))
		_, err := svc.Progress(context.Background(), &model.ProgressJobRequest{JobID: jobID1, Processed: 1})
		assert.True(t, apperrors.IsInvalidState(err))
	})

	negative := -1
	small := 5
	tests := []struct {
		name  string
		req   *model.ProgressJobRequest
		field string
	}{
		{"negative processed", &model.ProgressJobRequest{JobID: jobID1, Processed: -1}, "processed"},
		{"negative total", &model.ProgressJobRequest{JobID: jobID1, Total: &negative}, "total"},
		{"processed over total", &model.ProgressJobRequest{JobID: jobID1, Processed: 6, Total: &small}, "processed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestJobService(t, nil)
			_, err := svc.Progress(context.Background(), tt.req)
			assert.True(t, apperrors.IsInvalidRequest(err), err)
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}

	svc, _ := newTestJobService(t, nil)
	_, err := svc.Progress(context.Background(), nil)
	assert.True(t, apperrors.IsInvalidRequest(err))
	_, err = svc.Progress(context.Background(), &model.ProgressJobRequest{JobID: "nope"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobService_Fail(t *testing.T) {
	svc, repo := newTestJobService(t, nil)

	long := make([]byte, 1500)
	for i := range long {
		long[i] = 'x'
	}
	repo.EXPECT().Fail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.FailJobRequest) (*model.Job, error) {
			assert.Len(t, req.Error, model.MaxErrorMessageLength)
			assert.True(t, req.Transient)
			j := testJob(jobID1, model.JobTypeBackfillDimension, model.JobStatusPending, `{}`)
			j.RetryCount = 1
			return j, nil
		})

	job, err := svc.Fail(context.Background(), &model.FailJobRequest{JobID: jobID1, Error: string(long), Transient: true})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, job.Status)

	_, err = svc.Fail(context.Background(), &model.FailJobRequest{JobID: jobID1})
	assert.True(t, apperrors.IsInvalidRequest(err))

	_, err = svc.Fail(context.Background(), nil)
	assert.True(t, apperrors.IsInvalidRequest(err))
}

func TestJobService_Cancel(t *testing.T) {
	svc, repo := newTestJobService(t, nil)
	repo.EXPECT().Cancel(gomock.Any(), jobID1).
		Return(testJob(jobID1, model.JobTypeRunScraper, model.JobStatusCancelled, `{}`), nil)

	job, err := svc.Cancel(context.Background(), jobID1)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, job.Status)
}
