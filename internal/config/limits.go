package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxFolderNameLength = 255

	// MaxTestTitleLength is the maximum length for test titles.
	MaxTestTitleLength = 255

	// MaxSetNameLength is the maximum length for the set name stored on an attempt.
	MaxSetNameLength = 255

	// MaxUploadFiles caps the number of files accepted by one upload request.
	MaxUploadFiles = 50
)
