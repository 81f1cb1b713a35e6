package models

import "time"

// Attempt is one scored run through a test (or one of its sets).
// Reset attempts are kept for history but never count towards statistics.
type Attempt struct {
	ID             string           `json:"id" db:"id"`
	UserID         string           `json:"-" db:"user_id"`
	TestID         string           `json:"test_id" db:"test_id"`
	Score          int              `json:"score" db:"score"`
	TotalQuestions int              `json:"total_questions" db:"total_questions"`
	TimeTaken      int              `json:"time_taken" db:"time_taken"` // seconds
	SetName        *string          `json:"set_name" db:"set_name"`
	Details        []QuestionDetail `json:"details" db:"details"`
	AwayClicks     *int             `json:"away_clicks,omitempty" db:"away_clicks"`
	IsReset        bool             `json:"is_reset" db:"is_reset"`
	CompletedAt    time.Time        `json:"completed_at" db:"completed_at"`

	// TestTitle is joined in on read paths, not stored.
	TestTitle *string `json:"test_title,omitempty"`
}

// QuestionDetail records how a single question was answered, for review.
type QuestionDetail struct {
	Question       string  `json:"question"`
	UserAnswer     *string `json:"user_answer"`
	CorrectAnswer  string  `json:"correct_answer"`
	IsCorrect      bool    `json:"is_correct"`
	WasFlagged     bool    `json:"was_flagged,omitempty"`
	Strikethroughs []int   `json:"strikethroughs,omitempty"`
}
