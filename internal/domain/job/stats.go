package job

import (
	"math"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
)

// SuccessRate returns completed/(completed+errored), or 0 when both are zero.
func SuccessRate(completed, errored int) float64 {
	total := completed + errored
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

// Aggregate folds job samples into the stats contract.
//
// Every sample is counted in the status and type tallies. Only completed jobs
// with both timestamps contribute to the duration average; each contributes its
// whole-second duration and the mean is rounded to the nearest second.
func Aggregate(samples []model.JobStatSample) model.JobStats {
	stats := model.JobStats{
		TotalJobs: len(samples),
		ByStatus:  make(map[model.JobStatus]int, len(model.AllJobStatuses)),
		ByType:    make(map[model.JobType]int, len(model.AllJobTypes)),
	}
	for _, s := range model.AllJobStatuses {
		stats.ByStatus[s] = 0
	}
	for _, t := range model.AllJobTypes {
		stats.ByType[t] = 0
	}

	var (
		durationSum   int64
		durationCount int64
	)
	for _, s := range samples {
		stats.ByStatus[s.Status]++
		stats.ByType[s.Type]++

		if s.Status != model.JobStatusCompleted || s.StartedAt == nil || s.CompletedAt == nil {
			continue
		}
		durationSum += int64(s.CompletedAt.Sub(*s.StartedAt).Seconds())
		durationCount++
	}

	stats.SuccessRate = SuccessRate(stats.ByStatus[model.JobStatusCompleted], stats.ByStatus[model.JobStatusError])
	if durationCount > 0 {
		stats.AverageDurationSeconds = int64(math.Round(float64(durationSum) / float64(durationCount)))
	}
	return stats
}
