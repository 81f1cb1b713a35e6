package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"testtaker/internal/repository/postgres"
	"testtaker/internal/stats"
)

const titleWidth = 40

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Inspect the schema, stored data and a running API",
	}

	cmd.AddCommand(newCheckSchemaCmd())
	cmd.AddCommand(newCheckFoldersCmd())
	cmd.AddCommand(newCheckTestsCmd())
	cmd.AddCommand(newCheckResetsCmd())
	cmd.AddCommand(newCheckAPICmd())

	return cmd
}

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	return t
}

// truncate shortens s to width display cells
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func optionalScore(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p) + "%"
}

func relative(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return humanize.Time(*t)
}

// requiredColumns lists the columns the server relies on, per table
func requiredColumns(tables *postgres.TableNames) map[string][]string {
	return map[string][]string{
		tables.Folders:  {"id", "user_id", "parent_id", "name", "created_at"},
		tables.Tests:    {"id", "user_id", "folder_id", "title", "content", "is_starred", "last_accessed", "question_count", "set_count", "question_range", "created_at"},
		tables.Attempts: {"id", "user_id", "test_id", "score", "total_questions", "time_taken", "set_name", "details", "is_reset", "away_clicks", "completed_at"},
	}
}

func newCheckSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Verify that every table and column the server uses exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			t := newTable(cmd)
			t.AppendHeader(table.Row{"Table", "Column", "Status"})

			var missing int
			required := requiredColumns(e.repos.Tables)
			for _, name := range []string{e.repos.Tables.Folders, e.repos.Tables.Tests, e.repos.Tables.Attempts} {
				present, err := tableColumns(ctx, e, name)
				if err != nil {
					return err
				}
				for _, col := range required[name] {
					status := "ok"
					if !present[col] {
						status = "MISSING"
						missing++
					}
					t.AppendRow(table.Row{name, col, status})
				}
				t.AppendSeparator()
			}
			t.Render()

			if missing > 0 {
				return fmt.Errorf("%d required columns missing; run quizctl migrate up", missing)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ok")
			return nil
		},
	}
}

func tableColumns(ctx context.Context, e *env, tableName string) (map[string]bool, error) {
	rows, err := e.pool.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", tableName, err)
	}
	defer rows.Close()

	columns := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// countByUser prints per-user row counts of a table
func countByUser(cmd *cobra.Command, e *env, tableName, where string) error {
	query := fmt.Sprintf(`SELECT user_id::text, count(*) FROM %s %s GROUP BY user_id ORDER BY count(*) DESC`, tableName, where)
	rows, err := e.pool.Query(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("count %s: %w", tableName, err)
	}
	defer rows.Close()

	t := newTable(cmd)
	t.AppendHeader(table.Row{"User", "Rows"})
	var total int64
	for rows.Next() {
		var (
			userID string
			n      int64
		)
		if err := rows.Scan(&userID, &n); err != nil {
			return err
		}
		total += n
		t.AppendRow(table.Row{userID, humanize.Comma(n)})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	t.AppendFooter(table.Row{"Total", humanize.Comma(total)})
	t.Render()
	return nil
}

func newCheckFoldersCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List folders of a user, or folder counts per user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if user == "" {
				return countByUser(cmd, e, e.repos.Tables.Folders, "")
			}
			userID, err := e.resolveUser(ctx, user)
			if err != nil {
				return err
			}

			folders, err := postgres.NewFolderRepository(e.repos).ListByUser(ctx, userID)
			if err != nil {
				return err
			}

			t := newTable(cmd)
			t.AppendHeader(table.Row{"Name", "ID", "Parent", "Created"})
			for _, f := range folders {
				t.AppendRow(table.Row{truncate(f.Name, titleWidth), f.ID, optional(f.ParentID), humanize.Time(f.CreatedAt)})
			}
			t.AppendFooter(table.Row{fmt.Sprintf("%d folders", len(folders))})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID or email")
	return cmd
}

func newCheckTestsCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "tests",
		Short: "List tests of a user, or test counts per user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if user == "" {
				return countByUser(cmd, e, e.repos.Tables.Tests, "")
			}
			userID, err := e.resolveUser(ctx, user)
			if err != nil {
				return err
			}

			tests, err := postgres.NewTestRepository(e.repos).ListByUser(ctx, userID)
			if err != nil {
				return err
			}

			t := newTable(cmd)
			t.AppendHeader(table.Row{"Title", "ID", "Sets", "Questions", "Range", "Starred", "Last opened", "Size"})
			for _, test := range tests {
				starred := ""
				if test.IsStarred {
					starred = "★"
				}
				t.AppendRow(table.Row{
					truncate(test.Title, titleWidth),
					test.ID,
					test.SetCount,
					test.QuestionCount,
					optional(test.QuestionRange),
					starred,
					relative(test.LastAccessed),
					humanize.Bytes(uint64(len(test.Content))),
				})
			}
			t.AppendFooter(table.Row{fmt.Sprintf("%d tests", len(tests))})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID or email")
	return cmd
}

func newCheckResetsCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "resets",
		Short: "Show how many attempts are reset versus counted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if user == "" {
				return countByUser(cmd, e, e.repos.Tables.Attempts, "WHERE is_reset")
			}
			userID, err := e.resolveUser(ctx, user)
			if err != nil {
				return err
			}

			attempts, err := postgres.NewAttemptRepository(e.repos).ListScores(ctx, userID)
			if err != nil {
				return err
			}
			byTest := stats.BucketAttempts(attempts)

			ids := make([]string, 0, len(byTest))
			for id := range byTest {
				ids = append(ids, id)
			}
			titles, err := postgres.NewTestRepository(e.repos).GetTitles(ctx, userID, ids)
			if err != nil {
				return err
			}

			t := newTable(cmd)
			t.AppendHeader(table.Row{"Test", "Counted", "Reset", "Average"})
			for _, id := range ids {
				var reset int
				for _, a := range byTest[id] {
					if a.IsReset {
						reset++
					}
				}
				scores := stats.DeriveTestScores(byTest[id])
				t.AppendRow(table.Row{truncate(titles[id], titleWidth), scores.AttemptCount, reset, optionalScore(scores.AvgScore)})
			}
			t.SortBy([]table.SortBy{{Name: "Test", Mode: table.Asc}})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID or email")
	return cmd
}

func newCheckAPICmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Probe a running API: the root must answer and /folders must demand a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: 10 * time.Second}
			return probeAPI(cmd.Context(), client, strings.TrimRight(baseURL, "/"), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8000", "Base URL of the API")
	return cmd
}

// probeAPI checks the public root endpoint and that protected routes reject anonymous calls
func probeAPI(ctx context.Context, client *http.Client, baseURL string, out io.Writer) error {
	var failures []error

	status, body, err := get(ctx, client, baseURL+"/")
	switch {
	case err != nil:
		failures = append(failures, fmt.Errorf("GET /: %w", err))
	case status != http.StatusOK:
		failures = append(failures, fmt.Errorf("GET /: status %d, want 200", status))
	default:
		var root struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &root); err != nil || root.Message == "" {
			failures = append(failures, fmt.Errorf("GET /: unexpected body %q", truncate(string(body), 80)))
		} else {
			fmt.Fprintf(out, "GET /         ok  %q\n", root.Message)
		}
	}

	status, _, err = get(ctx, client, baseURL+"/folders")
	switch {
	case err != nil:
		failures = append(failures, fmt.Errorf("GET /folders: %w", err))
	case status != http.StatusUnauthorized:
		failures = append(failures, fmt.Errorf("GET /folders: status %d without a token, want 401", status))
	default:
		fmt.Fprintln(out, "GET /folders  ok  401 without a token")
	}

	return errors.Join(failures...)
}

func get(ctx context.Context, client *http.Client, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, body, err
}
