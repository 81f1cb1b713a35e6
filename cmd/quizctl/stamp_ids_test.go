package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const fixedID = "0b6f1c9e-3d1a-4a53-9f0e-2f4c8f6a7d21"

func TestStampID(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		want         string
		wantExisting string
		wantErr      bool
	}{
		{
			name: "indented document keeps its layout",
			in:   "{\n  \"title\": \"Biology\",\n  \"sets\": []\n}\n",
			want: "{\n  \"id\": \"" + fixedID + "\",\n  \"title\": \"Biology\",\n  \"sets\": []\n}\n",
		},
		{
			name: "compact document",
			in:   `{"sets":[]}`,
			want: `{"id": "` + fixedID + `","sets":[]}`,
		},
		{
			name: "empty object gets no trailing comma",
			in:   `{}`,
			want: `{"id": "` + fixedID + `"}`,
		},
		{
			name:         "existing id is kept",
			in:           `{"id": "abc", "sets": []}`,
			wantExisting: "abc",
		},
		{
			name:         "non-string id still counts as present",
			in:           `{"id": 7}`,
			wantExisting: "7",
		},
		{name: "array", in: `[1, 2]`, wantErr: true},
		{name: "null", in: `null`, wantErr: true},
		{name: "malformed", in: `{"sets": [`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, existing, err := stampID([]byte(tt.in), fixedID)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.wantExisting != "" {
				if got != nil {
					t.Errorf("document was rewritten: %s", got)
				}
				if existing != tt.wantExisting {
					t.Errorf("existing = %q, want %q", existing, tt.wantExisting)
				}
				return
			}

			if string(got) != tt.want {
				t.Errorf("stampID() =\n%s\nwant\n%s", got, tt.want)
			}
			var doc map[string]any
			if err := json.Unmarshal(got, &doc); err != nil {
				t.Fatalf("result is not valid JSON: %v", err)
			}
			if doc["id"] != fixedID {
				t.Errorf("id = %v, want %s", doc["id"], fixedID)
			}
		})
	}
}

func TestStampFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiz.json")
	if err := os.WriteFile(path, []byte(`{"sets": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("dry run leaves the file alone", func(t *testing.T) {
		id, changed, err := stampFile(path, fixedID, true)
		if err != nil || !changed || id != fixedID {
			t.Fatalf("stampFile() = (%q, %v, %v)", id, changed, err)
		}
		raw, _ := os.ReadFile(path)
		if string(raw) != `{"sets": []}` {
			t.Errorf("file changed on dry run: %s", raw)
		}
	})

	t.Run("stamps once", func(t *testing.T) {
		if _, changed, err := stampFile(path, fixedID, false); err != nil || !changed {
			t.Fatalf("first stamp: changed=%v err=%v", changed, err)
		}
		id, changed, err := stampFile(path, "other", false)
		if err != nil {
			t.Fatal(err)
		}
		if changed || id != fixedID {
			t.Errorf("second stamp = (%q, %v), want (%q, false)", id, changed, fixedID)
		}
	})
}
