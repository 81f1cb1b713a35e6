package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPgErrorHelpers(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("query: %w", &pgconn.PgError{Code: code})
	}

	tests := []struct {
		name      string
		err       error
		duplicate bool
		foreign   bool
		invalid   bool
		noRows    bool
	}{
		{name: "unique violation", err: wrap("23505"), duplicate: true},
		{name: "foreign key violation", err: wrap("23503"), foreign: true},
		{name: "invalid uuid", err: wrap("22P02"), invalid: true},
		{name: "no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), noRows: true},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPgDuplicateError(tt.err); got != tt.duplicate {
				t.Errorf("IsPgDuplicateError() = %v, want %v", got, tt.duplicate)
			}
			if got := IsPgForeignKeyError(tt.err); got != tt.foreign {
				t.Errorf("IsPgForeignKeyError() = %v, want %v", got, tt.foreign)
			}
			if got := IsPgInvalidInputError(tt.err); got != tt.invalid {
				t.Errorf("IsPgInvalidInputError() = %v, want %v", got, tt.invalid)
			}
			if got := IsPgNoRowsError(tt.err); got != tt.noRows {
				t.Errorf("IsPgNoRowsError() = %v, want %v", got, tt.noRows)
			}
		})
	}
}

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("dev_")
	if tables.Folders != "dev_folders" || tables.Tests != "dev_tests" || tables.Attempts != "dev_test_attempts" {
		t.Errorf("NewTableNames(dev_) = %+v", tables)
	}

	prod := NewTableNames("")
	if prod.Attempts != "test_attempts" {
		t.Errorf("prod Attempts = %q, want test_attempts", prod.Attempts)
	}
}
