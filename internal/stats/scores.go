// Package stats derives score statistics for tests and folders from attempt rows.
//
// Everything here is a pure function of its inputs: callers fetch a consistent
// snapshot of folders, tests and attempts and the package annotates the derived
// fields in place. No state survives between calls.
package stats

import (
	"math"
	"sort"

	"testtaker/internal/domain/models"
)

// TestScores is the derivation result for a single test.
type TestScores struct {
	models.ScoreSummary

	// Mean is the unrounded average percentage, used when folding test
	// averages into folder averages. Nil when no attempt counts.
	Mean *float64
}

// Percentage returns the attempt's score as a percentage of its questions.
// An attempt with no questions scores 0 rather than being dropped.
func Percentage(a models.Attempt) float64 {
	if a.TotalQuestions <= 0 {
		return 0
	}
	return float64(a.Score) / float64(a.TotalQuestions) * 100
}

// Round converts a percentage to the integer shown to users (round half to even).
func Round(v float64) int {
	return int(math.RoundToEven(v))
}

// DeriveTestScores computes attempt count and average, best and last score for
// one test's attempts. Reset attempts are ignored. The last score belongs to the
// most recently completed attempt; attempts with equal completion times keep
// their input order.
func DeriveTestScores(attempts []models.Attempt) TestScores {
	counted := make([]models.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if !a.IsReset {
			counted = append(counted, a)
		}
	}
	if len(counted) == 0 {
		return TestScores{}
	}

	sort.SliceStable(counted, func(i, j int) bool {
		return counted[i].CompletedAt.After(counted[j].CompletedAt)
	})

	var sum float64
	best := math.Inf(-1)
	for _, a := range counted {
		p := Percentage(a)
		sum += p
		best = math.Max(best, p)
	}
	mean := sum / float64(len(counted))

	return TestScores{
		ScoreSummary: models.ScoreSummary{
			AttemptCount: len(counted),
			AvgScore:     intPtr(Round(mean)),
			BestScore:    intPtr(Round(best)),
			LastScore:    intPtr(Round(Percentage(counted[0]))),
		},
		Mean: &mean,
	}
}

// BucketAttempts groups attempts by test ID, preserving input order within each test.
func BucketAttempts(attempts []models.Attempt) map[string][]models.Attempt {
	byTest := make(map[string][]models.Attempt)
	for _, a := range attempts {
		byTest[a.TestID] = append(byTest[a.TestID], a)
	}
	return byTest
}

// AnnotateTests fills the ScoreSummary of every test from the given attempts.
// Attempts for tests not in the slice are ignored.
func AnnotateTests(tests []models.Test, attempts []models.Attempt) {
	byTest := BucketAttempts(attempts)
	for i := range tests {
		tests[i].ScoreSummary = DeriveTestScores(byTest[tests[i].ID]).ScoreSummary
	}
}

func intPtr(v int) *int {
	return &v
}
