package job

import "github.com/neighborcast/neighborcast-api/internal/domain/model"

// DefaultRetryBudget is the executor retry budget for job types that define one.
const DefaultRetryBudget = 3

// RetryBudget returns max_retries for a new job of type t.
// Only backfill_dimension and recompute_final_scores get an automatic budget;
// the rest fail terminally on their first error.
func RetryBudget(t model.JobType) int {
	switch t {
	case model.JobTypeBackfillDimension, model.JobTypeRecomputeFinalScores:
		return DefaultRetryBudget
	case model.JobTypeFetchPermalink, model.JobTypeReprocess, model.JobTypeRunScraper:
		return 0
	}
	return 0
}
