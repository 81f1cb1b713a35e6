package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newStampIDsCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "stamp-ids <dir>",
		Short: "Add an \"id\" to every quiz JSON file in a directory that lacks one",
		Long: "stamp-ids gives each quiz file a stable UUID so that re-uploading the file " +
			"updates the existing test instead of creating a new one. Files that already " +
			"carry an \"id\" are left alone.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			dir := args[0]

			entries, err := os.ReadDir(dir)
			if err != nil {
				return err
			}

			var stamped, failed int
			for _, entry := range entries {
				if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
					continue
				}
				path := filepath.Join(dir, entry.Name())

				id, changed, err := stampFile(path, uuid.NewString(), dryRun)
				switch {
				case err != nil:
					failed++
					fmt.Fprintf(out, "error    %s: %v\n", entry.Name(), err)
				case changed:
					stamped++
					fmt.Fprintf(out, "stamped  %s: %s\n", entry.Name(), id)
				default:
					fmt.Fprintf(out, "skipped  %s: already has id %s\n", entry.Name(), id)
				}
			}

			fmt.Fprintf(out, "%d files stamped, %d failed\n", stamped, failed)
			if failed > 0 {
				return fmt.Errorf("%d files could not be processed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing files")
	return cmd
}

// stampFile adds id to the quiz file at path unless it already has one. It
// returns the id the file ends up with and whether the file was changed.
func stampFile(path, id string, dryRun bool) (string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}

	updated, existing, err := stampID(raw, id)
	if err != nil {
		return "", false, err
	}
	if updated == nil {
		return existing, false, nil
	}
	if dryRun {
		return id, true, nil
	}
	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return "", false, err
	}
	return id, true, nil
}

var errNotObject = errors.New("not a JSON object")

// stampID inserts "id" as the first member of the JSON object in raw, keeping
// the rest of the document byte for byte. When the object already has an
// "id" member, updated is nil and existing holds its value as text.
func stampID(raw []byte, id string) (updated []byte, existing string, err error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, "", errNotObject
		}
		return nil, "", err
	}
	if doc == nil {
		return nil, "", errNotObject
	}
	if current, ok := doc["id"]; ok {
		var s string
		if json.Unmarshal(current, &s) == nil {
			return nil, s, nil
		}
		return nil, string(current), nil
	}

	open := bytes.IndexByte(raw, '{')
	rest := raw[open+1:]
	indent := rest[:len(rest)-len(bytes.TrimLeft(rest, " \t\r\n"))]

	quoted, err := json.Marshal(id)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	buf.Grow(len(raw) + len(indent) + len(quoted) + 8)
	buf.Write(raw[:open+1])
	buf.Write(indent)
	buf.WriteString(`"id": `)
	buf.Write(quoted)
	if len(doc) > 0 {
		buf.WriteByte(',')
	}
	buf.Write(rest)
	return buf.Bytes(), "", nil
}
