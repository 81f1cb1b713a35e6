package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// QuizContent is a complete quiz document as authored (used for bundled samples).
type QuizContent struct {
	ID    string    `json:"id,omitempty" yaml:"id,omitempty"`
	Title string    `json:"title,omitempty" yaml:"title,omitempty"`
	Sets  []QuizSet `json:"sets" yaml:"sets"`
}

// QuizSet is a titled group of questions within a quiz.
type QuizSet struct {
	Title     string         `json:"title,omitempty" yaml:"title,omitempty"`
	Questions []QuizQuestion `json:"questions" yaml:"questions"`
}

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	Passage       string   `json:"passage,omitempty" yaml:"passage,omitempty"`
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Outline returns the structural summary of the quiz.
func (q *QuizContent) Outline() *QuizOutline {
	o := &QuizOutline{ID: q.ID, Sets: make([]SetOutline, 0, len(q.Sets))}
	for _, s := range q.Sets {
		o.Sets = append(o.Sets, SetOutline{Title: s.Title, QuestionCount: len(s.Questions)})
	}
	return o
}

// QuizOutline is the part of an uploaded quiz the backend inspects: its
// embedded ID and the size of each set. Uploaded content is stored verbatim,
// so question fields are never decoded.
type QuizOutline struct {
	ID   string
	Sets []SetOutline
}

// SetOutline describes one set of a quiz.
type SetOutline struct {
	Title         string
	QuestionCount int
}

// ErrNotQuizObject is returned when uploaded JSON is valid but not a quiz object.
var ErrNotQuizObject = errors.New("quiz must be a JSON object")

// ParseQuizOutline reads the outline from raw quiz JSON. Missing "sets" means
// no sets; a non-string "id" or set title is ignored. It fails on malformed
// JSON, on a non-object document, or when "sets" or a set has the wrong shape.
func ParseQuizOutline(raw []byte) (*QuizOutline, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotQuizObject
		}
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotQuizObject
	}

	outline := &QuizOutline{Sets: []SetOutline{}}
	if rawID, ok := doc["id"]; ok {
		var id string
		if json.Unmarshal(rawID, &id) == nil {
			outline.ID = id
		}
	}

	rawSets, ok := doc["sets"]
	if !ok || isJSONNull(rawSets) {
		return outline, nil
	}

	var sets []map[string]json.RawMessage
	if err := json.Unmarshal(rawSets, &sets); err != nil {
		return nil, fmt.Errorf("sets must be an array of objects")
	}

	for i, set := range sets {
		if set == nil {
			return nil, fmt.Errorf("set %d must be an object", i+1)
		}
		var s SetOutline
		if rawTitle, ok := set["title"]; ok {
			_ = json.Unmarshal(rawTitle, &s.Title)
		}
		if rawQuestions, ok := set["questions"]; ok && !isJSONNull(rawQuestions) {
			var questions []json.RawMessage
			if err := json.Unmarshal(rawQuestions, &questions); err != nil {
				return nil, fmt.Errorf("questions of set %d must be an array", i+1)
			}
			s.QuestionCount = len(questions)
		}
		outline.Sets = append(outline.Sets, s)
	}

	return outline, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// SetTitles returns one summary per set, defaulting untitled sets to "Set N".
func (q *QuizOutline) SetTitles() []SetSummary {
	sets := make([]SetSummary, 0, len(q.Sets))
	for i, s := range q.Sets {
		title := s.Title
		if title == "" {
			title = fmt.Sprintf("Set %d", i+1)
		}
		sets = append(sets, SetSummary{Title: title})
	}
	return sets
}

// QuestionCount returns the total number of questions across all sets.
func (q *QuizOutline) QuestionCount() int {
	total := 0
	for _, s := range q.Sets {
		total += s.QuestionCount
	}
	return total
}

// QuestionRange describes the spread of set sizes, e.g. "10-25" or "20".
// It is nil unless the quiz has more than one set.
func (q *QuizOutline) QuestionRange() *string {
	if len(q.Sets) <= 1 {
		return nil
	}

	minQ, maxQ := q.Sets[0].QuestionCount, q.Sets[0].QuestionCount
	for _, s := range q.Sets[1:] {
		minQ = min(minQ, s.QuestionCount)
		maxQ = max(maxQ, s.QuestionCount)
	}

	r := strconv.Itoa(minQ)
	if minQ != maxQ {
		r = fmt.Sprintf("%d-%d", minQ, maxQ)
	}
	return &r
}
