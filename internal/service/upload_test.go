package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"testtaker/internal/domain"
	"testtaker/internal/domain/models"
	"testtaker/internal/domain/services"
)

const embeddedID = "3f2b6c1e-8a4d-4f8e-9b1a-2c3d4e5f6a7b"

func file(name, body string) services.UploadFile {
	return services.UploadFile{Filename: name, Body: strings.NewReader(body)}
}

func upload(t *testing.T, f *fixture, folderID *string, files ...services.UploadFile) []models.UploadResult {
	t.Helper()
	cred := models.Credentials{UserID: alice, AccessToken: "alice-token"}
	resp, err := f.uploadService().Upload(context.Background(), cred, folderID, files)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(resp.Results) != len(files) {
		t.Fatalf("got %d results for %d files", len(resp.Results), len(files))
	}
	return resp.Results
}

func TestUpload_CreatesTestFromQuiz(t *testing.T) {
	f := newFixture()
	folder := f.addFolder(alice, "F", nil)
	quiz := `{"sets":[{"questions":[1,2,3]},{"questions":[1,2,3,4,5]}]}`

	results := upload(t, f, &folder, file("biology.json", quiz))

	r := results[0]
	if r.Status != models.UploadStatusCreated || r.ID == "" || r.Filename != "biology.json" {
		t.Fatalf("result = %+v, want created with id", r)
	}
	test := f.store.tests[r.ID]
	if test.Title != "biology" || test.UserID != alice {
		t.Errorf("test = %+v, want title biology owned by alice", test)
	}
	if test.FolderID == nil || *test.FolderID != folder {
		t.Errorf("folder = %v, want %s", test.FolderID, folder)
	}
	if test.SetCount != 2 || test.QuestionCount != 8 {
		t.Errorf("counts = (%d sets, %d questions), want (2, 8)", test.SetCount, test.QuestionCount)
	}
	if test.QuestionRange == nil || *test.QuestionRange != "3-5" {
		t.Errorf("question range = %v, want 3-5", test.QuestionRange)
	}
	if string(test.Content) != quiz {
		t.Errorf("content = %s, want verbatim upload", test.Content)
	}
}

func TestUpload_EmbeddedID(t *testing.T) {
	t.Run("new test keeps embedded id", func(t *testing.T) {
		f := newFixture()
		results := upload(t, f, nil, file("q.json", `{"id":"`+strings.ToUpper(embeddedID)+`","sets":[]}`))
		if results[0].Status != models.UploadStatusCreated || results[0].ID != embeddedID {
			t.Errorf("result = %+v, want created with canonical embedded id", results[0])
		}
	})

	t.Run("invalid id is ignored", func(t *testing.T) {
		f := newFixture()
		results := upload(t, f, nil, file("q.json", `{"id":"not-a-uuid","sets":[]}`))
		if results[0].Status != models.UploadStatusCreated || results[0].ID == "not-a-uuid" || results[0].ID == "" {
			t.Errorf("result = %+v, want created with a generated id", results[0])
		}
	})

	t.Run("re-upload updates content and keeps folder", func(t *testing.T) {
		f := newFixture()
		original := f.addFolder(alice, "Original", nil)
		elsewhere := f.addFolder(alice, "Elsewhere", nil)
		test := &models.Test{ID: embeddedID, UserID: alice, Title: "old", FolderID: &original, Content: []byte(`{}`), IsStarred: true}
		if err := f.tests.Create(context.Background(), test); err != nil {
			t.Fatal(err)
		}

		quiz := `{"id":"` + embeddedID + `","sets":[{"questions":[1,2]}]}`
		results := upload(t, f, &elsewhere, file("new title.json", quiz))

		if results[0].Status != models.UploadStatusUpdated || results[0].ID != embeddedID {
			t.Fatalf("result = %+v, want updated", results[0])
		}
		got := f.store.tests[embeddedID]
		if got.Title != "new title" || string(got.Content) != quiz || got.QuestionCount != 2 || got.SetCount != 1 {
			t.Errorf("test = %+v, want replaced content", got)
		}
		if got.QuestionRange != nil {
			t.Errorf("question range = %s, want nil for a single set", *got.QuestionRange)
		}
		if got.FolderID == nil || *got.FolderID != original {
			t.Errorf("folder = %v, want original folder kept", got.FolderID)
		}
		if !got.IsStarred {
			t.Error("re-upload cleared the star")
		}
	})

	t.Run("id owned by another user", func(t *testing.T) {
		f := newFixture()
		f.store.tests[embeddedID] = models.Test{ID: embeddedID, UserID: bob, Title: "bob's"}

		results := upload(t, f, nil, file("q.json", `{"id":"`+embeddedID+`"}`))
		if results[0].Status != models.UploadStatusError {
			t.Errorf("result = %+v, want error", results[0])
		}
		if f.store.tests[embeddedID].UserID != bob {
			t.Error("another user's test was modified")
		}
	})
}

func TestUpload_PerFileResults(t *testing.T) {
	f := newFixture()

	results := upload(t, f, ptr("null"),
		file("broken.json", `{"sets": [`),
		file("array.json", `[1, 2]`),
		file("badsets.json", `{"sets": "nope"}`),
		file("notes.txt", "hello"),
		file("ok.json", `{"sets":[{"questions":[]}]}`),
		file("scan.pdf", "%PDF-1.4"),
	)

	want := []struct {
		status string
		detail string
	}{
		{models.UploadStatusError, "Invalid JSON"},
		{models.UploadStatusError, models.ErrNotQuizObject.Error()},
		{models.UploadStatusError, "sets must be an array of objects"},
		{models.UploadStatusError, "Unsupported file type"},
		{models.UploadStatusCreated, ""},
		{models.UploadStatusSuccess, ""},
	}
	for i, w := range want {
		if results[i].Status != w.status || results[i].Detail != w.detail {
			t.Errorf("result %d = %+v, want status %q detail %q", i, results[i], w.status, w.detail)
		}
	}

	if len(f.store.tests) != 1 {
		t.Errorf("stored %d tests, want 1", len(f.store.tests))
	}
	for _, test := range f.store.tests {
		if test.FolderID != nil {
			t.Errorf("folder = %s, want root for folder_id \"null\"", *test.FolderID)
		}
	}
}

func TestUpload_StoresPDFWithCallerCredential(t *testing.T) {
	f := newFixture()

	results := upload(t, f, nil, file("dir/notes.pdf", "%PDF-1.4 body"))

	if results[0].Status != models.UploadStatusSuccess || results[0].Path != alice+"/notes.pdf" {
		t.Fatalf("result = %+v, want success at %s/notes.pdf", results[0], alice)
	}
	if len(f.files.files) != 1 {
		t.Fatalf("stored %d files, want 1", len(f.files.files))
	}
	stored := f.files.files[0]
	if stored.bucket != "pdfs" || stored.contentType != "application/pdf" || stored.path != alice+"/notes.pdf" {
		t.Errorf("stored = %+v", stored)
	}
	if stored.cred.AccessToken != "alice-token" {
		t.Errorf("token = %q, want the caller's token", stored.cred.AccessToken)
	}
	if string(stored.body) != "%PDF-1.4 body" {
		t.Errorf("body = %q", stored.body)
	}
}

func TestUpload_StorageFailureIsPerFile(t *testing.T) {
	f := newFixture()
	f.files.err = errors.New("bucket not found")

	results := upload(t, f, nil, file("a.pdf", "x"), file("b.json", `{}`))

	if results[0].Status != models.UploadStatusError || results[0].Detail != "bucket not found" {
		t.Errorf("pdf result = %+v, want error with upstream detail", results[0])
	}
	if results[1].Status != models.UploadStatusCreated {
		t.Errorf("json result = %+v, want created", results[1])
	}
}

func TestUpload_UnknownFolder(t *testing.T) {
	f := newFixture()
	foreign := f.addFolder(bob, "B", nil)

	cred := models.Credentials{UserID: alice, AccessToken: "t"}
	_, err := f.uploadService().Upload(context.Background(), cred, &foreign, []services.UploadFile{file("q.json", `{}`)})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if len(f.store.tests) != 0 {
		t.Error("test created despite unknown folder")
	}
}
