package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"testtaker/internal/domain"
	"testtaker/internal/domain/services"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

func TestListFolders_AggregatesFromSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	a := f.addFolder(alice, "A", nil)
	b := f.addFolder(alice, "B", &a)
	f.addFolder(bob, "Bob's", nil)

	t1 := f.addTest(alice, "T1", &a, `{}`)
	t2 := f.addTest(alice, "T2", &b, `{}`)
	f.addAttempt(alice, t1, 8, 10, at)
	f.addAttempt(alice, t2, 10, 10, at)

	folders, err := f.folderService().ListFolders(ctx, alice)
	if err != nil {
		t.Fatalf("ListFolders() error = %v", err)
	}
	if f.tx.snapshotCalls != 1 {
		t.Errorf("snapshot transactions = %d, want 1", f.tx.snapshotCalls)
	}
	if len(folders) != 2 {
		t.Fatalf("got %d folders, want 2 (other users' folders excluded)", len(folders))
	}

	// ordered by name
	if folders[0].Name != "A" || folders[1].Name != "B" {
		t.Fatalf("order = [%s %s], want [A B]", folders[0].Name, folders[1].Name)
	}
	if folders[0].TestCount != 2 || folders[0].FolderCount != 1 {
		t.Errorf("A counts = (%d, %d), want (2, 1)", folders[0].TestCount, folders[0].FolderCount)
	}
	if folders[0].AvgScore == nil || *folders[0].AvgScore != 90 {
		t.Errorf("A avg = %v, want 90", folders[0].AvgScore)
	}
}

func TestListFolders_SnapshotError(t *testing.T) {
	f := newFixture()
	f.tx.err = errBoom

	_, err := f.folderService().ListFolders(context.Background(), alice)
	if !errors.Is(err, errBoom) {
		t.Errorf("error = %v, want wrapped errBoom", err)
	}
}

func TestCreateFolder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	parent := f.addFolder(alice, "Parent", nil)
	foreign := f.addFolder(bob, "Foreign", nil)

	tests := []struct {
		name     string
		req      services.CreateFolderRequest
		wantErr  error
		wantName string
	}{
		{name: "root folder", req: services.CreateFolderRequest{Name: "Biology"}, wantName: "Biology"},
		{name: "name is trimmed", req: services.CreateFolderRequest{Name: "  Chem  "}, wantName: "Chem"},
		{name: "nested folder", req: services.CreateFolderRequest{Name: "Cells", ParentID: &parent}, wantName: "Cells"},
		{name: "null parent string means root", req: services.CreateFolderRequest{Name: "X", ParentID: ptr("null")}, wantName: "X"},
		{name: "blank name", req: services.CreateFolderRequest{Name: "   "}, wantErr: domain.ErrValidation},
		{name: "name too long", req: services.CreateFolderRequest{Name: strings.Repeat("a", 256)}, wantErr: domain.ErrValidation},
		{name: "unknown parent", req: services.CreateFolderRequest{Name: "Y", ParentID: ptr("missing")}, wantErr: domain.ErrNotFound},
		{name: "other user's parent", req: services.CreateFolderRequest{Name: "Z", ParentID: &foreign}, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			folder, err := f.folderService().CreateFolder(ctx, alice, &req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if folder.Name != tt.wantName || folder.UserID != alice || folder.ID == "" {
				t.Errorf("folder = %+v, want name %q owned by alice", folder, tt.wantName)
			}
		})
	}
}

func TestCreateFolder_ValidationErrorsAreKeyedByField(t *testing.T) {
	f := newFixture()
	_, err := f.folderService().CreateFolder(context.Background(), alice, &services.CreateFolderRequest{})

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want validation.Errors", err)
	}
	if _, ok := verrs["name"]; !ok {
		t.Errorf("validation errors = %v, want a name entry", verrs)
	}
}

func TestUpdateFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("empty request", func(t *testing.T) {
		f := newFixture()
		id := f.addFolder(alice, "A", nil)
		_, err := f.folderService().UpdateFolder(ctx, alice, id, &services.UpdateFolderRequest{})
		if !errors.Is(err, domain.ErrValidation) || err.Error() != "no fields to update" {
			t.Errorf("error = %v, want no fields to update", err)
		}
	})

	t.Run("rename", func(t *testing.T) {
		f := newFixture()
		id := f.addFolder(alice, "A", nil)
		got, err := f.folderService().UpdateFolder(ctx, alice, id, &services.UpdateFolderRequest{Name: ptr(" Renamed ")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Name != "Renamed" {
			t.Errorf("name = %q, want Renamed", got.Name)
		}
	})

	t.Run("rename keeps parent when parent absent", func(t *testing.T) {
		f := newFixture()
		p := f.addFolder(alice, "P", nil)
		id := f.addFolder(alice, "A", &p)
		got, err := f.folderService().UpdateFolder(ctx, alice, id, &services.UpdateFolderRequest{Name: ptr("B")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ParentID == nil || *got.ParentID != p {
			t.Errorf("parent = %v, want %s", got.ParentID, p)
		}
	})

	t.Run("move to root", func(t *testing.T) {
		f := newFixture()
		p := f.addFolder(alice, "P", nil)
		id := f.addFolder(alice, "A", &p)
		got, err := f.folderService().UpdateFolder(ctx, alice, id, &services.UpdateFolderRequest{
			ParentID: services.OptionalID{Present: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ParentID != nil {
			t.Errorf("parent = %v, want nil", *got.ParentID)
		}
	})

	t.Run("move under sibling", func(t *testing.T) {
		f := newFixture()
		a := f.addFolder(alice, "A", nil)
		b := f.addFolder(alice, "B", nil)
		got, err := f.folderService().UpdateFolder(ctx, alice, a, &services.UpdateFolderRequest{
			ParentID: services.OptionalID{Present: true, Value: &b},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ParentID == nil || *got.ParentID != b {
			t.Errorf("parent = %v, want %s", got.ParentID, b)
		}
	})

	t.Run("missing folder", func(t *testing.T) {
		f := newFixture()
		_, err := f.folderService().UpdateFolder(ctx, alice, "missing", &services.UpdateFolderRequest{Name: ptr("x")})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("other user's folder", func(t *testing.T) {
		f := newFixture()
		id := f.addFolder(bob, "B", nil)
		_, err := f.folderService().UpdateFolder(ctx, alice, id, &services.UpdateFolderRequest{Name: ptr("x")})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateFolder_RejectsCycles(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	root := f.addFolder(alice, "root", nil)
	child := f.addFolder(alice, "child", &root)
	grandchild := f.addFolder(alice, "grandchild", &child)

	tests := []struct {
		name    string
		id      string
		parent  string
		wantErr error
	}{
		{name: "own parent", id: root, parent: root, wantErr: domain.ErrValidation},
		{name: "direct child", id: root, parent: child, wantErr: domain.ErrValidation},
		{name: "deep descendant", id: root, parent: grandchild, wantErr: domain.ErrValidation},
		{name: "unknown parent", id: child, parent: "missing", wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := tt.parent
			_, err := f.folderService().UpdateFolder(ctx, alice, tt.id, &services.UpdateFolderRequest{
				ParentID: services.OptionalID{Present: true, Value: &parent},
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNoCircularReference_StopsOnCorruptAncestry(t *testing.T) {
	f := newFixture()
	x := f.addFolder(alice, "x", nil)
	y := f.addFolder(alice, "y", &x)
	// corrupt existing data: x <-> y
	fx := f.store.folders[x]
	fx.ParentID = &y
	f.store.folders[x] = fx

	target := f.addFolder(alice, "target", nil)
	err := f.folderService().validateNoCircularReference(context.Background(), alice, target, x)
	if err != nil {
		t.Errorf("error = %v, want nil for a target outside the cycle", err)
	}
}

func TestDeleteFolder(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("cascade", func(t *testing.T) {
		f := newFixture()
		doomed := f.addFolder(alice, "doomed", nil)
		sub := f.addFolder(alice, "sub", &doomed)
		test := f.addTest(alice, "T", &sub, `{}`)
		f.addAttempt(alice, test, 1, 1, at)

		if err := f.folderService().DeleteFolder(ctx, alice, doomed, false); err != nil {
			t.Fatalf("DeleteFolder() error = %v", err)
		}
		if len(f.store.folders) != 0 || len(f.store.tests) != 0 || len(f.store.attempts) != 0 {
			t.Errorf("store not emptied: %d folders, %d tests, %d attempts",
				len(f.store.folders), len(f.store.tests), len(f.store.attempts))
		}
		if f.tx.txCalls != 0 {
			t.Errorf("cascade delete used %d transactions, want 0", f.tx.txCalls)
		}
	})

	t.Run("move contents to parent", func(t *testing.T) {
		f := newFixture()
		top := f.addFolder(alice, "top", nil)
		doomed := f.addFolder(alice, "doomed", &top)
		sub := f.addFolder(alice, "sub", &doomed)
		test := f.addTest(alice, "T", &doomed, `{}`)

		if err := f.folderService().DeleteFolder(ctx, alice, doomed, true); err != nil {
			t.Fatalf("DeleteFolder() error = %v", err)
		}
		if f.tx.txCalls != 1 {
			t.Errorf("transactions = %d, want 1", f.tx.txCalls)
		}
		if _, ok := f.store.folders[doomed]; ok {
			t.Error("folder still exists")
		}
		if p := f.store.folders[sub].ParentID; p == nil || *p != top {
			t.Errorf("subfolder parent = %v, want %s", p, top)
		}
		if fid := f.store.tests[test].FolderID; fid == nil || *fid != top {
			t.Errorf("test folder = %v, want %s", fid, top)
		}
	})

	t.Run("move contents of root folder to root", func(t *testing.T) {
		f := newFixture()
		doomed := f.addFolder(alice, "doomed", nil)
		sub := f.addFolder(alice, "sub", &doomed)
		test := f.addTest(alice, "T", &doomed, `{}`)

		if err := f.folderService().DeleteFolder(ctx, alice, doomed, true); err != nil {
			t.Fatalf("DeleteFolder() error = %v", err)
		}
		if f.store.folders[sub].ParentID != nil {
			t.Error("subfolder should be at root")
		}
		if f.store.tests[test].FolderID != nil {
			t.Error("test should be at root")
		}
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture()
		err := f.folderService().DeleteFolder(ctx, alice, "missing", true)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}
