package stats

import (
	"testtaker/internal/domain/models"
)

// folderTotals is the memoised result for one folder subtree. Scores are kept
// as a running sum and count of per-test means so merging a child is O(1).
type folderTotals struct {
	testCount   int
	folderCount int
	scoreSum    float64
	scoreCount  int
}

// aggregation holds the indexes and memo table for one AggregateFolders call.
type aggregation struct {
	children  map[string][]string // folder ID -> child folder IDs
	testsIn   map[string][]string // folder ID -> IDs of tests directly inside
	testMeans map[string]*float64 // test ID -> unrounded mean (nil = no attempts)
	memo      map[string]*folderTotals

	// observe is called each time a folder's totals are computed. Test hook.
	observe func(folderID string)
}

// AggregateFolders annotates every folder with the recursive number of tests
// and subfolders beneath it and the average of the per-test average scores of
// all tests in its subtree.
//
// A parent reference to a folder outside the given set is treated as no parent,
// and a parent reference that would close a cycle is ignored, so any input is
// accepted. Tests whose folder is unknown do not count towards any folder.
func AggregateFolders(folders []models.Folder, tests []models.Test, attempts []models.Attempt) {
	aggregateFolders(folders, tests, attempts, nil)
}

func aggregateFolders(folders []models.Folder, tests []models.Test, attempts []models.Attempt, observe func(string)) {
	known := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		known[f.ID] = struct{}{}
	}

	agg := &aggregation{
		children:  make(map[string][]string),
		testsIn:   make(map[string][]string),
		testMeans: make(map[string]*float64, len(tests)),
		memo:      make(map[string]*folderTotals, len(folders)),
		observe:   observe,
	}

	seen := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		if f.ParentID == nil || *f.ParentID == f.ID {
			continue
		}
		if _, ok := known[*f.ParentID]; ok {
			agg.children[*f.ParentID] = append(agg.children[*f.ParentID], f.ID)
		}
	}

	byTest := BucketAttempts(attempts)
	for _, t := range tests {
		agg.testMeans[t.ID] = DeriveTestScores(byTest[t.ID]).Mean
		if t.FolderID == nil {
			continue
		}
		if _, ok := known[*t.FolderID]; ok {
			agg.testsIn[*t.FolderID] = append(agg.testsIn[*t.FolderID], t.ID)
		}
	}

	for _, f := range folders {
		agg.walk(f.ID)
	}

	for i := range folders {
		totals := agg.memo[folders[i].ID]
		folders[i].TestCount = totals.testCount
		folders[i].FolderCount = totals.folderCount
		folders[i].AvgScore = nil
		if totals.scoreCount > 0 {
			folders[i].AvgScore = intPtr(Round(totals.scoreSum / float64(totals.scoreCount)))
		}
	}
}

// frame is one pending folder on the traversal stack.
type frame struct {
	id   string
	next int      // index of the next child to visit
	kids []string // children whose totals are merged into this folder
}

// walk computes totals for the subtree rooted at id with an explicit
// post-order stack, so tree depth is bounded only by memory. Folders already
// in the memo table are reused; a child that is still on the stack is a cycle
// and its edge is dropped.
func (a *aggregation) walk(id string) {
	if _, done := a.memo[id]; done {
		return
	}

	onStack := map[string]bool{id: true}
	stack := []frame{{id: id}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := a.children[top.id]

		if top.next < len(kids) {
			child := kids[top.next]
			top.next++

			if _, done := a.memo[child]; done {
				top.kids = append(top.kids, child)
				continue
			}
			if onStack[child] {
				continue
			}
			onStack[child] = true
			stack = append(stack, frame{id: child})
			continue
		}

		finished := *top
		stack = stack[:len(stack)-1]
		delete(onStack, finished.id)
		a.memo[finished.id] = a.compute(finished.id, finished.kids)

		if len(stack) > 0 {
			parent := &stack[len(stack)-1]
			parent.kids = append(parent.kids, finished.id)
		}
	}
}

// compute merges a folder's direct tests with the already computed totals of
// its children. It runs exactly once per folder.
func (a *aggregation) compute(id string, kids []string) *folderTotals {
	if a.observe != nil {
		a.observe(id)
	}

	direct := a.testsIn[id]
	totals := &folderTotals{
		testCount:   len(direct),
		folderCount: len(kids),
	}
	for _, testID := range direct {
		if mean := a.testMeans[testID]; mean != nil {
			totals.scoreSum += *mean
			totals.scoreCount++
		}
	}

	for _, childID := range kids {
		child := a.memo[childID]
		totals.testCount += child.testCount
		totals.folderCount += child.folderCount
		totals.scoreSum += child.scoreSum
		totals.scoreCount += child.scoreCount
	}

	return totals
}
