package models

import (
	"time"
)

// Folder is a node in a user's folder tree. TestCount, FolderCount and AvgScore
// are not stored; they are filled in by the stats aggregation on list requests.
type Folder struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	ParentID  *string   `json:"parent_id" db:"parent_id"` // NULL = root level
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	TestCount   int  `json:"test_count"`
	FolderCount int  `json:"folder_count"`
	AvgScore    *int `json:"avg_score"`
}
