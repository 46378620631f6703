package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

// ScoringDimensions are the LLM scoring dimensions a backfill may target.
var ScoringDimensions = []string{
	"absurdity",
	"discussion_spark",
	"drama",
	"emotional_intensity",
	"news_value",
	"podcast_worthy",
	"readability",
}

// Scraper feed types.
const (
	FeedTypeRecent   = "recent"
	FeedTypeTrending = "trending"
)

// ParamsPolicy carries deployment-specific validation knobs.
type ParamsPolicy struct {
	// PermalinkDomains restricts fetch_permalink URLs to these registrable domains.
	// Empty allows any host.
	PermalinkDomains []string
}

// JobParams is the tagged union of per-type payloads. The tag is JobType().
type JobParams interface {
	JobType() JobType
	Validate(policy ParamsPolicy) error
}

// BackfillDimensionParams is the payload of a backfill_dimension job.
type BackfillDimensionParams struct {
	Dimension string `json:"dimension"`
}

// FetchPermalinkParams is the payload of a fetch_permalink job.
type FetchPermalinkParams struct {
	URL    string  `json:"url"`
	PostID *string `json:"post_id,omitempty"`
}

// RecomputeFinalScoresParams is the payload of a recompute_final_scores job.
type RecomputeFinalScoresParams struct {
	WeightConfigID string `json:"weight_config_id"`
	// ActivateOnComplete cuts the active configuration over to WeightConfigID
	// once the executor reports completion.
	ActivateOnComplete bool `json:"activate_on_complete,omitempty"`
}

// ReprocessParams is the payload of a reprocess job.
type ReprocessParams struct {
	PostID string `json:"post_id"`
}

// RunScraperParams is the payload of a run_scraper job.
type RunScraperParams struct {
	FeedType string `json:"feed_type,omitempty"`
}

func (BackfillDimensionParams) JobType() JobType    { return JobTypeBackfillDimension }
func (FetchPermalinkParams) JobType() JobType       { return JobTypeFetchPermalink }
func (RecomputeFinalScoresParams) JobType() JobType { return JobTypeRecomputeFinalScores }
func (ReprocessParams) JobType() JobType            { return JobTypeReprocess }
func (RunScraperParams) JobType() JobType           { return JobTypeRunScraper }

// Validate implements JobParams.
func (p *BackfillDimensionParams) Validate(ParamsPolicy) error {
	if p.Dimension == "" {
		return apperrors.InvalidField("params.dimension", "is required")
	}
	if !slices.Contains(ScoringDimensions, p.Dimension) {
		return apperrors.InvalidField(
			"params.dimension",
			fmt.Sprintf("must be one of %s", strings.Join(ScoringDimensions, ", ")),
		)
	}
	return nil
}

// Validate implements JobParams.
func (p *FetchPermalinkParams) Validate(policy ParamsPolicy) error {
	if strings.TrimSpace(p.URL) == "" {
		return apperrors.InvalidField("params.url", "is required")
	}
	u, err := url.Parse(p.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return apperrors.InvalidField("params.url", "must be an absolute http(s) URL")
	}
	if len(policy.PermalinkDomains) > 0 {
		domain, derr := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
		if derr != nil || !slices.Contains(policy.PermalinkDomains, domain) {
			return apperrors.InvalidField(
				"params.url",
				fmt.Sprintf("host must belong to one of %s", strings.Join(policy.PermalinkDomains, ", ")),
			)
		}
	}
	if p.PostID != nil {
		if _, err := uuid.Parse(*p.PostID); err != nil {
			return apperrors.InvalidField("params.post_id", "must be a UUID")
		}
	}
	return nil
}

// Validate implements JobParams.
func (p *RecomputeFinalScoresParams) Validate(ParamsPolicy) error {
	if p.WeightConfigID == "" {
		return apperrors.InvalidField("params.weight_config_id", "is required")
	}
	if _, err := uuid.Parse(p.WeightConfigID); err != nil {
		return apperrors.InvalidField("params.weight_config_id", "must be a UUID")
	}
	return nil
}

// Validate implements JobParams.
func (p *ReprocessParams) Validate(ParamsPolicy) error {
	if p.PostID == "" {
		return apperrors.InvalidField("params.post_id", "is required")
	}
	if _, err := uuid.Parse(p.PostID); err != nil {
		return apperrors.InvalidField("params.post_id", "must be a UUID")
	}
	return nil
}

// Validate implements JobParams.
func (p *RunScraperParams) Validate(ParamsPolicy) error {
	if p.FeedType == "" {
		p.FeedType = FeedTypeRecent
	}
	if p.FeedType != FeedTypeRecent && p.FeedType != FeedTypeTrending {
		return apperrors.InvalidField("params.feed_type", "must be recent or trending")
	}
	return nil
}

// newParams returns an empty variant for the tag.
func newParams(t JobType) (JobParams, bool) {
	switch t {
	case JobTypeBackfillDimension:
		return &BackfillDimensionParams{}, true
	case JobTypeFetchPermalink:
		return &FetchPermalinkParams{}, true
	case JobTypeRecomputeFinalScores:
		return &RecomputeFinalScoresParams{}, true
	case JobTypeReprocess:
		return &ReprocessParams{}, true
	case JobTypeRunScraper:
		return &RunScraperParams{}, true
	}
	return nil, false
}

// DecodeJobParams decodes raw into the variant selected by t and validates it.
// Unknown fields are rejected. The first validation failure is returned as InvalidRequest.
func DecodeJobParams(t JobType, raw json.RawMessage, policy ParamsPolicy) (JobParams, error) {
	if t == "" {
		return nil, apperrors.InvalidField("type", "is required")
	}
	p, ok := newParams(t)
	if !ok {
		return nil, apperrors.InvalidField("type", fmt.Sprintf("unknown job type %q", t))
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, apperrors.InvalidField("params", err.Error())
	}

	if err := p.Validate(policy); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeJobParams renders a validated variant in its canonical JSON form.
func EncodeJobParams(p JobParams) (json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", p.JobType(), err)
	}
	return b, nil
}
