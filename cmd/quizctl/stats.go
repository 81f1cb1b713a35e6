package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"testtaker/internal/domain/models"
	"testtaker/internal/repository/postgres"
	"testtaker/internal/service"
)

func newStatsCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the folder statistics the API would return for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			userID, err := e.resolveUser(ctx, user)
			if err != nil {
				return err
			}

			folderService := service.NewFolderService(
				postgres.NewFolderRepository(e.repos),
				postgres.NewTestRepository(e.repos),
				postgres.NewAttemptRepository(e.repos),
				postgres.NewTransactionManager(e.pool, e.logger),
				e.logger,
			)
			folders, err := folderService.ListFolders(ctx, userID)
			if err != nil {
				return err
			}
			if len(folders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no folders")
				return nil
			}

			t := newTable(cmd)
			t.AppendHeader(table.Row{"Folder", "Tests", "Subfolders", "Average"})
			for _, row := range folderTree(folders) {
				f := row.folder
				name := strings.Repeat("  ", row.depth) + truncate(f.Name, titleWidth)
				t.AppendRow(table.Row{name, f.TestCount, f.FolderCount, optionalScore(f.AvgScore)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID or email")
	return cmd
}

type treeRow struct {
	folder models.Folder
	depth  int
}

// folderTree orders folders depth-first by name under their parents. Folders
// whose parent is missing are shown at the top level; folders only reachable
// through a cycle are appended at the end.
func folderTree(folders []models.Folder) []treeRow {
	known := make(map[string]bool, len(folders))
	for _, f := range folders {
		known[f.ID] = true
	}

	children := map[string][]models.Folder{}
	var roots []models.Folder
	for _, f := range folders {
		if f.ParentID == nil || !known[*f.ParentID] || *f.ParentID == f.ID {
			roots = append(roots, f)
			continue
		}
		children[*f.ParentID] = append(children[*f.ParentID], f)
	}

	byName := func(list []models.Folder) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}
	byName(roots)

	rows := make([]treeRow, 0, len(folders))
	visited := make(map[string]bool, len(folders))

	var visit func(f models.Folder, depth int)
	visit = func(f models.Folder, depth int) {
		if visited[f.ID] {
			return
		}
		visited[f.ID] = true
		rows = append(rows, treeRow{folder: f, depth: depth})

		kids := children[f.ID]
		byName(kids)
		for _, child := range kids {
			visit(child, depth+1)
		}
	}

	for _, f := range roots {
		visit(f, 0)
	}
	for _, f := range folders {
		visit(f, 0)
	}
	return rows
}
