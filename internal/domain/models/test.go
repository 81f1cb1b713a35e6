package models

import (
	"encoding/json"
	"time"
)

// ScoreSummary holds the derived per-test statistics. Scores are integer
// percentages; nil means the test has no counted attempts.
type ScoreSummary struct {
	AttemptCount int  `json:"attempt_count"`
	AvgScore     *int `json:"avg_score"`
	BestScore    *int `json:"best_score"`
	LastScore    *int `json:"last_score"`
}

// Test is an uploaded quiz definition. Content is the raw quiz JSON as uploaded.
type Test struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"-" db:"user_id"`
	FolderID      *string         `json:"folder_id" db:"folder_id"` // NULL = root level
	Title         string          `json:"title" db:"title"`
	Content       json.RawMessage `json:"content,omitempty" db:"content"`
	IsStarred     bool            `json:"is_starred" db:"is_starred"`
	LastAccessed  *time.Time      `json:"last_accessed" db:"last_accessed"`
	QuestionCount int             `json:"question_count" db:"question_count"`
	SetCount      int             `json:"set_count" db:"set_count"`
	QuestionRange *string         `json:"question_range" db:"question_range"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`

	ScoreSummary
}

// TestSummary is the list-view projection of a test: content is stripped and
// replaced by the titles of its sets.
type TestSummary struct {
	Test
	Sets []SetSummary `json:"sets"`
}

// SetSummary is the list-view projection of a quiz set.
type SetSummary struct {
	Title string `json:"title"`
}
