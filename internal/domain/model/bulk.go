package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

// BulkSortKey selects the ordering of a bulk query.
type BulkSortKey string

const (
	// SortPostedAt orders by when the post was published (chronological family).
	SortPostedAt BulkSortKey = "posted_at"
	// SortCreatedAt orders by when the post was ingested (chronological family).
	SortCreatedAt BulkSortKey = "created_at"
	// SortScore orders by the ranking score under the active weight configuration.
	SortScore BulkSortKey = "score"
)

// RequiresActiveConfig reports whether the sort key belongs to the score family.
func (k BulkSortKey) RequiresActiveConfig() bool {
	return k == SortScore
}

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// MaxBulkIDs is the hard cap on resolved ids for any bulk request.
const MaxBulkIDs = 10000

// BulkQuerySpec is the filter/sort descriptor shared by the count, preview and apply flows.
// Nil filters mean "no constraint".
type BulkQuerySpec struct {
	Category        *string     `json:"category,omitempty"`
	MinScore        *float64    `json:"min_score,omitempty"`
	MinPodcastScore *float64    `json:"min_podcast_score,omitempty"`
	NeighborhoodID  *string     `json:"neighborhood_id,omitempty"`
	Saved           *bool       `json:"saved,omitempty"`
	Ignored         *bool       `json:"ignored,omitempty"`
	Used            *bool       `json:"used,omitempty"`
	Sort            BulkSortKey `json:"sort,omitempty"`
	Order           string      `json:"order,omitempty"`
}

// Normalize fills in the default sort key and direction.
func (s *BulkQuerySpec) Normalize() {
	if s.Sort == "" {
		s.Sort = SortPostedAt
	}
	if s.Order == "" {
		s.Order = SortDesc
	}
}

// Validate checks the spec after Normalize.
func (s *BulkQuerySpec) Validate() error {
	switch s.Sort {
	case SortPostedAt, SortCreatedAt, SortScore:
	default:
		return apperrors.InvalidField("query.sort", "must be one of posted_at, created_at, score")
	}
	if s.Order != SortAsc && s.Order != SortDesc {
		return apperrors.InvalidField("query.order", "must be asc or desc")
	}
	if s.NeighborhoodID != nil {
		if _, err := uuid.Parse(*s.NeighborhoodID); err != nil {
			return apperrors.InvalidField("query.neighborhood_id", "must be a UUID")
		}
	}
	if s.Category != nil && *s.Category == "" {
		return apperrors.InvalidField("query.category", "must not be empty")
	}
	return nil
}

// ResolvedPostQuery is a validated spec ready for the store, bound to the
// active configuration when the sort needs one.
type ResolvedPostQuery struct {
	Spec           BulkQuerySpec
	WeightConfigID string
	Limit          int
}

// BulkResolution is the ordered, capped match set of a bulk query.
type BulkResolution struct {
	IDs       []string
	Truncated bool
}

// BulkAction is what an apply request does to each matched post.
type BulkAction string

const (
	// BulkActionReprocess queues one reprocess job per post.
	BulkActionReprocess BulkAction = "reprocess"
	// BulkActionSave marks posts as saved.
	BulkActionSave BulkAction = "save"
	// BulkActionIgnore marks posts as ignored.
	BulkActionIgnore BulkAction = "ignore"
	// BulkActionMarkUsed marks posts as used on an episode.
	BulkActionMarkUsed BulkAction = "mark_used"
)

// Valid reports whether the action is known.
func (a BulkAction) Valid() bool {
	switch a {
	case BulkActionReprocess, BulkActionSave, BulkActionIgnore, BulkActionMarkUsed:
		return true
	}
	return false
}

// FlagColumn returns the posts column a flag action sets, or "" for job actions.
func (a BulkAction) FlagColumn() string {
	switch a {
	case BulkActionSave:
		return "saved"
	case BulkActionIgnore:
		return "ignored"
	case BulkActionMarkUsed:
		return "used_on_episode"
	case BulkActionReprocess:
		return ""
	}
	return ""
}

// BulkCountResult is the count contract.
type BulkCountResult struct {
	Count     int  `json:"count"`
	Truncated bool `json:"truncated"`
}

// BulkPreviewResult is the preview contract.
type BulkPreviewResult struct {
	Count     int      `json:"count"`
	Truncated bool     `json:"truncated"`
	IDs       []string `json:"ids"`
}

// BulkApplyResult is the apply contract. JobIDsQueued is set for job actions,
// Updated for flag actions.
type BulkApplyResult struct {
	Action       BulkAction `json:"action"`
	Matched      int        `json:"matched"`
	JobIDsQueued []string   `json:"job_ids_queued"`
	Updated      int        `json:"updated"`
	Skipped      int        `json:"skipped"`
	Truncated    bool       `json:"truncated"`
}

// WeightConfig is a named set of dimension weights.
type WeightConfig struct {
	ID        string          `json:"id"         db:"id"`
	Name      string          `json:"name"       db:"name"`
	Weights   json.RawMessage `json:"weights"    db:"weights"`
	IsActive  bool            `json:"is_active"  db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// ActiveConfigSettingKey names the settings row holding the active configuration pointer.
const ActiveConfigSettingKey = "active_weight_config_id"

// CutoverResult reports a completed cutover. Warnings lists cache invalidation
// steps that failed without affecting the pointer.
type CutoverResult struct {
	ConfigID    string    `json:"config_id"`
	ActivatedAt time.Time `json:"activated_at"`
	ActivatedBy string    `json:"activated_by"`
	Warnings    []string  `json:"warnings,omitempty"`
}
