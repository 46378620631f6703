package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
)

const (
	jobID1  = "3f0c9a7e-1b2d-4c5e-8f9a-0b1c2d3e4f5a"
	jobID2  = "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b"
	postID1 = "11111111-1111-4111-8111-111111111111"
	postID2 = "22222222-2222-4222-8222-222222222222"
	postID3 = "33333333-3333-4333-8333-333333333333"
	cfgID   = "0d3f1c2e-8a4b-4f6e-9c1d-2b3a4c5d6e7f"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testJob(id string, t model.JobType, st model.JobStatus, params string) *model.Job {
	return &model.Job{
		ID:        id,
		Type:      t,
		Params:    json.RawMessage(params),
		Status:    st,
		CreatedBy: "alice",
		CreatedAt: testNow,
	}
}

// stubActivator records job-driven cutovers.
type stubActivator struct {
	calls []string
	err   error
}

func (s *stubActivator) Activate(_ context.Context, configID, actor string) (*model.CutoverResult, error) {
	s.calls = append(s.calls, configID+"|"+actor)
	if s.err != nil {
		return nil, s.err
	}
	return &model.CutoverResult{ConfigID: configID, ActivatedAt: testNow, ActivatedBy: actor}, nil
}

// stubConfigCache is an in-memory ConfigCache that records invalidation calls.
type stubConfigCache struct {
	id           string
	getErr       error
	sharedErr    error
	broadcastErr error
	steps        []string
}

func (c *stubConfigCache) Get(context.Context) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	return c.id, c.id != "", nil
}

func (c *stubConfigCache) InvalidateShared(context.Context) error {
	c.steps = append(c.steps, "shared")
	return c.sharedErr
}

func (c *stubConfigCache) InvalidateLocal() {
	c.steps = append(c.steps, "local")
	c.id = ""
}

func (c *stubConfigCache) Broadcast(_ context.Context, id string) error {
	c.steps = append(c.steps, "broadcast:"+id)
	return c.broadcastErr
}
