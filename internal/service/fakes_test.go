package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"testtaker/internal/domain"
	"testtaker/internal/domain/models"
	"testtaker/internal/domain/repositories"
)

// store is an in-memory stand-in for the database shared by the fake repositories.
type store struct {
	mu       sync.Mutex
	folders  map[string]models.Folder
	tests    map[string]models.Test
	attempts map[string]models.Attempt
	seq      int
}

func newStore() *store {
	return &store{
		folders:  map[string]models.Folder{},
		tests:    map[string]models.Test{},
		attempts: map[string]models.Attempt{},
	}
}

func (s *store) nextTime() time.Time {
	s.seq++
	return time.Date(2025, 1, 1, 0, 0, s.seq, 0, time.UTC)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFolderRepo struct{ s *store }

func (r *fakeFolderRepo) Create(_ context.Context, f *models.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.CreatedAt = r.s.nextTime()
	r.s.folders[f.ID] = *f
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, id, userID string) (*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok || f.UserID != userID {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (r *fakeFolderRepo) Update(_ context.Context, f *models.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.folders[f.ID]; !ok {
		return fmt.Errorf("folder %s: %w", f.ID, domain.ErrNotFound)
	}
	r.s.folders[f.ID] = *f
	return nil
}

func (r *fakeFolderRepo) Delete(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok || f.UserID != userID {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	r.s.cascadeFolder(id)
	return nil
}

// cascadeFolder mimics ON DELETE CASCADE for folders, tests and attempts.
func (s *store) cascadeFolder(id string) {
	delete(s.folders, id)
	for childID, child := range s.folders {
		if child.ParentID != nil && *child.ParentID == id {
			s.cascadeFolder(childID)
		}
	}
	for testID, t := range s.tests {
		if t.FolderID != nil && *t.FolderID == id {
			s.cascadeTest(testID)
		}
	}
}

func (s *store) cascadeTest(id string) {
	delete(s.tests, id)
	for attemptID, a := range s.attempts {
		if a.TestID == id {
			delete(s.attempts, attemptID)
		}
	}
}

func (r *fakeFolderRepo) ListByUser(_ context.Context, userID string) ([]models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	folders := []models.Folder{}
	for _, f := range r.s.folders {
		if f.UserID == userID {
			folders = append(folders, f)
		}
	}
	sort.Slice(folders, func(i, j int) bool {
		if folders[i].Name != folders[j].Name {
			return folders[i].Name < folders[j].Name
		}
		return folders[i].ID < folders[j].ID
	})
	return folders, nil
}

func (r *fakeFolderRepo) Reparent(_ context.Context, userID, fromID string, toID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, f := range r.s.folders {
		if f.UserID == userID && f.ParentID != nil && *f.ParentID == fromID {
			f.ParentID = toID
			r.s.folders[id] = f
		}
	}
	return nil
}

type fakeTestRepo struct {
	s         *store
	touchErr  error
	touchedAt map[string]time.Time
}

func (r *fakeTestRepo) Create(_ context.Context, t *models.Test) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, dup := r.s.tests[t.ID]; dup {
		return &domain.ConflictError{Message: "test exists", ResourceType: "test", ResourceID: t.ID}
	}
	t.CreatedAt = r.s.nextTime()
	r.s.tests[t.ID] = *t
	return nil
}

func (r *fakeTestRepo) GetByID(_ context.Context, id, userID string) (*models.Test, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tests[id]
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("test %s: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (r *fakeTestRepo) Exists(_ context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tests[id]
	return ok && t.UserID == userID, nil
}

func (r *fakeTestRepo) ListByUser(_ context.Context, userID string) ([]models.Test, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tests := []models.Test{}
	for _, t := range r.s.tests {
		if t.UserID == userID {
			tests = append(tests, t)
		}
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].CreatedAt.After(tests[j].CreatedAt) })
	return tests, nil
}

func (r *fakeTestRepo) ListPlacements(ctx context.Context, userID string) ([]models.Test, error) {
	tests, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	placements := make([]models.Test, 0, len(tests))
	for _, t := range tests {
		placements = append(placements, models.Test{ID: t.ID, FolderID: t.FolderID})
	}
	return placements, nil
}

func (r *fakeTestRepo) Update(_ context.Context, t *models.Test) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tests[t.ID]
	if !ok {
		return fmt.Errorf("test %s: %w", t.ID, domain.ErrNotFound)
	}
	stored.Title = t.Title
	stored.FolderID = t.FolderID
	stored.IsStarred = t.IsStarred
	stored.LastAccessed = t.LastAccessed
	r.s.tests[t.ID] = stored
	return nil
}

func (r *fakeTestRepo) ReplaceContent(_ context.Context, t *models.Test) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tests[t.ID]
	if !ok || stored.UserID != t.UserID {
		return fmt.Errorf("test %s: %w", t.ID, domain.ErrNotFound)
	}
	stored.Title = t.Title
	stored.Content = t.Content
	stored.QuestionCount = t.QuestionCount
	stored.SetCount = t.SetCount
	stored.QuestionRange = t.QuestionRange
	r.s.tests[t.ID] = stored
	return nil
}

func (r *fakeTestRepo) TouchLastAccessed(_ context.Context, id, userID string, at time.Time) error {
	if r.touchErr != nil {
		return r.touchErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tests[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("test %s: %w", id, domain.ErrNotFound)
	}
	t.LastAccessed = &at
	r.s.tests[id] = t
	if r.touchedAt == nil {
		r.touchedAt = map[string]time.Time{}
	}
	r.touchedAt[id] = at
	return nil
}

func (r *fakeTestRepo) Delete(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tests[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("test %s: %w", id, domain.ErrNotFound)
	}
	r.s.cascadeTest(id)
	return nil
}

func (r *fakeTestRepo) MoveFolderContents(_ context.Context, userID, fromFolderID string, toFolderID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.tests {
		if t.UserID == userID && t.FolderID != nil && *t.FolderID == fromFolderID {
			t.FolderID = toFolderID
			r.s.tests[id] = t
		}
	}
	return nil
}

func (r *fakeTestRepo) GetTitles(_ context.Context, userID string, ids []string) (map[string]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	titles := map[string]string{}
	for _, id := range ids {
		if t, ok := r.s.tests[id]; ok && t.UserID == userID {
			titles[id] = t.Title
		}
	}
	return titles, nil
}

type fakeAttemptRepo struct{ s *store }

func (r *fakeAttemptRepo) Create(_ context.Context, a *models.Attempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.s.attempts[a.ID] = *a
	return nil
}

func (r *fakeAttemptRepo) withTitle(a models.Attempt) models.Attempt {
	if t, ok := r.s.tests[a.TestID]; ok {
		title := t.Title
		a.TestTitle = &title
	}
	return a
}

func (r *fakeAttemptRepo) GetByID(_ context.Context, id, userID string) (*models.Attempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attempts[id]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("attempt %s: %w", id, domain.ErrNotFound)
	}
	a = r.withTitle(a)
	return &a, nil
}

func (r *fakeAttemptRepo) List(_ context.Context, userID string, testID *string) ([]models.Attempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attempts := []models.Attempt{}
	for _, a := range r.s.attempts {
		if a.UserID != userID || (testID != nil && a.TestID != *testID) {
			continue
		}
		attempts = append(attempts, r.withTitle(a))
	}
	sort.Slice(attempts, func(i, j int) bool {
		if !attempts[i].CompletedAt.Equal(attempts[j].CompletedAt) {
			return attempts[i].CompletedAt.After(attempts[j].CompletedAt)
		}
		return attempts[i].ID < attempts[j].ID
	})
	return attempts, nil
}

func (r *fakeAttemptRepo) ListScores(ctx context.Context, userID string) ([]models.Attempt, error) {
	attempts, err := r.List(ctx, userID, nil)
	for i := range attempts {
		attempts[i].Details = nil
		attempts[i].TestTitle = nil
	}
	return attempts, err
}

func (r *fakeAttemptRepo) ResetByTest(_ context.Context, userID, testID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, a := range r.s.attempts {
		if a.UserID == userID && a.TestID == testID {
			a.IsReset = true
			a.Details = nil
			r.s.attempts[id] = a
			n++
		}
	}
	return n, nil
}

// fakeTxManager runs functions directly and counts which kind was requested.
type fakeTxManager struct {
	txCalls       int
	snapshotCalls int
	err           error
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.txCalls++
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

func (m *fakeTxManager) ExecSnapshot(ctx context.Context, fn repositories.TxFn) error {
	m.snapshotCalls++
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

type storedFile struct {
	cred        models.Credentials
	bucket      string
	path        string
	contentType string
	body        []byte
}

type fakeFileStore struct {
	files []storedFile
	err   error
}

func (f *fakeFileStore) Upload(_ context.Context, cred models.Credentials, bucket, path, contentType string, body io.Reader) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.files = append(f.files, storedFile{cred, bucket, path, contentType, data})
	return nil
}

// fixture bundles the fakes with every service built on them.
type fixture struct {
	store    *store
	folders  *fakeFolderRepo
	tests    *fakeTestRepo
	attempts *fakeAttemptRepo
	tx       *fakeTxManager
	files    *fakeFileStore
}

func newFixture() *fixture {
	s := newStore()
	return &fixture{
		store:    s,
		folders:  &fakeFolderRepo{s: s},
		tests:    &fakeTestRepo{s: s},
		attempts: &fakeAttemptRepo{s: s},
		tx:       &fakeTxManager{},
		files:    &fakeFileStore{},
	}
}

func (f *fixture) folderService() *folderService {
	return NewFolderService(f.folders, f.tests, f.attempts, f.tx, discardLogger()).(*folderService)
}

func (f *fixture) testService() *testService {
	return NewTestService(f.tests, f.folders, f.attempts, f.tx, discardLogger()).(*testService)
}

func (f *fixture) attemptService() *attemptService {
	return NewAttemptService(f.attempts, f.tests, discardLogger()).(*attemptService)
}

func (f *fixture) uploadService() *uploadService {
	return NewUploadService(f.tests, f.folders, f.files, "pdfs", discardLogger()).(*uploadService)
}

func (f *fixture) addFolder(userID, name string, parentID *string) string {
	folder := &models.Folder{UserID: userID, Name: name, ParentID: parentID}
	_ = f.folders.Create(context.Background(), folder)
	return folder.ID
}

func (f *fixture) addTest(userID, title string, folderID *string, content string) string {
	test := &models.Test{UserID: userID, Title: title, FolderID: folderID, Content: []byte(content)}
	_ = f.tests.Create(context.Background(), test)
	return test.ID
}

func (f *fixture) addAttempt(userID, testID string, score, total int, at time.Time) string {
	a := &models.Attempt{UserID: userID, TestID: testID, Score: score, TotalQuestions: total, CompletedAt: at}
	_ = f.attempts.Create(context.Background(), a)
	return a.ID
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T {
	return &v
}
