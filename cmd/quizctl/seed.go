package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"testtaker/internal/domain/models"
	"testtaker/internal/domain/services"
	"testtaker/internal/repository/postgres"
	"testtaker/internal/service"
)

//go:embed sample.yaml
var sampleQuizYAML []byte

const sampleFilename = "Sample Quiz.json"

// sampleQuiz decodes the bundled sample quiz
func sampleQuiz() (*models.QuizContent, error) {
	var quiz models.QuizContent
	if err := yaml.Unmarshal(sampleQuizYAML, &quiz); err != nil {
		return nil, fmt.Errorf("decode sample quiz: %w", err)
	}
	return &quiz, nil
}

func newSeedSampleCmd() *cobra.Command {
	var (
		user     string
		folderID string
	)

	cmd := &cobra.Command{
		Use:   "seed-sample",
		Short: "Upload the bundled sample quiz for a user",
		Long: "seed-sample imports the bundled sample quiz the same way the upload endpoint " +
			"would. The sample carries a fixed id, so running it again refreshes the " +
			"existing test instead of adding a copy.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			quiz, err := sampleQuiz()
			if err != nil {
				return err
			}
			content, err := json.MarshalIndent(quiz, "", "  ")
			if err != nil {
				return err
			}

			e, err := connect(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			userID, err := e.resolveUser(ctx, user)
			if err != nil {
				return err
			}

			// Attachments are never part of the sample, so no file store is needed
			uploads := service.NewUploadService(
				postgres.NewTestRepository(e.repos),
				postgres.NewFolderRepository(e.repos),
				nil,
				e.cfg.PDFBucket,
				e.logger,
			)

			var folder *string
			if folderID != "" {
				folder = &folderID
			}
			resp, err := uploads.Upload(ctx, models.Credentials{UserID: userID}, folder, []services.UploadFile{{
				Filename:    sampleFilename,
				ContentType: "application/json",
				Body:        bytes.NewReader(content),
			}})
			if err != nil {
				return err
			}

			result := resp.Results[0]
			if result.Status == models.UploadStatusError {
				return fmt.Errorf("seed sample: %s", result.Detail)
			}
			outline := quiz.Outline()
			fmt.Fprintf(cmd.OutOrStdout(), "%s test %s (%d sets, %d questions)\n",
				result.Status, result.ID, len(outline.Sets), outline.QuestionCount())
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID or email")
	cmd.Flags().StringVar(&folderID, "folder", "", "Folder ID to place a newly created sample in")
	return cmd
}
