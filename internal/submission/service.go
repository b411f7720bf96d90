// Package submission validates uploaded survey files against a registered
// schema, flattens the findings into messages and persists the outcome.
package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/SurveyIntake/internal/ingest"
	"github.com/JonMunkholm/SurveyIntake/internal/logging"
	"github.com/JonMunkholm/SurveyIntake/internal/schema"
	"github.com/JonMunkholm/SurveyIntake/internal/tabular"
)

// ErrEmptyFile is returned when an upload has no content.
var ErrEmptyFile = errors.New("empty file")

// sniffLen is how many leading bytes are used for content type detection.
const sniffLen = 512

// Input is one parsed upload, ready for validation.
type Input struct {
	FileName string
	MIME     string
	Schema   schema.Definition
	Workbook *tabular.Workbook

	// Sheets lists every file or sheet present in the upload. Defaults to the
	// workbook's worksheet names.
	Sheets []string

	// Unrecognized lists archive members that were not read.
	Unrecognized []string
}

// Result is the outcome of validating one submission.
type Result struct {
	SubmissionID uuid.UUID                   `json:"submissionId"`
	Schema       string                      `json:"schema"`
	FileName     string                      `json:"fileName"`
	MIME         string                      `json:"mimeType"`
	Status       Status                      `json:"status"`
	Submission   tabular.Snapshot            `json:"submission"`
	Worksheets   map[string]tabular.Snapshot `json:"worksheets"`
	Messages     []Message                   `json:"messages"`
	ErrorCount   int                         `json:"errorCount"`
	WarningCount int                         `json:"warningCount"`
	Unrecognized []string                    `json:"unrecognized,omitempty"`
	ValidatedAt  time.Time                   `json:"validatedAt"`
}

// Service runs schema pipelines over parsed uploads.
type Service struct {
	maxParallel int
	now         func() time.Time
}

// NewService creates a Service that validates up to maxParallel worksheets of
// one submission at a time (<= 0 means no limit).
func NewService(maxParallel int) *Service {
	return &Service{
		maxParallel: maxParallel,
		now:         time.Now,
	}
}

// Open parses raw upload bytes according to the schema's kind.
func Open(def schema.Definition, fileName string, data []byte) (Input, error) {
	if len(data) == 0 {
		return Input{}, ErrEmptyFile
	}

	in := Input{
		FileName: fileName,
		MIME:     ingest.DetectMIME(fileName, data[:min(len(data), sniffLen)]),
		Schema:   def,
	}

	switch def.Kind {
	case schema.KindArchive:
		archive, err := ingest.ReadDwCArchive(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return Input{}, fmt.Errorf("reading %s: %w", fileName, err)
		}
		in.Workbook = archive.Workbook
		in.Sheets = archive.Sheets()
		in.Unrecognized = archive.Unrecognized
	case schema.KindTemplate:
		wb, err := ingest.ReadXLSX(bytes.NewReader(data))
		if err != nil {
			return Input{}, fmt.Errorf("reading %s: %w", fileName, err)
		}
		in.Workbook = wb
	default:
		return Input{}, fmt.Errorf("schema %s: unsupported kind %q", def.Key, def.Kind)
	}

	return in, nil
}

// Validate runs, in order, the submission checks, every worksheet pipeline
// and the cross-worksheet rules. Rule violations are reported in the Result;
// an error means validation could not run.
func (s *Service) Validate(ctx context.Context, in Input) (*Result, error) {
	if in.Workbook == nil || in.Schema.Document == nil {
		return nil, fmt.Errorf("validate %s: missing workbook or schema", in.FileName)
	}
	doc := in.Schema.Document

	id := uuid.New()
	logger := logging.WithFields(ctx,
		"submission_id", id.String(),
		"schema", in.Schema.Key,
		"file", in.FileName,
	)
	start := time.Now()

	checks, err := doc.SubmissionChecks()
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", in.Schema.Key, err)
	}
	pipelines, err := doc.Pipelines(in.Workbook)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", in.Schema.Key, err)
	}
	workbookRules, err := doc.WorkbookPipeline()
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", in.Schema.Key, err)
	}

	sheets := in.Sheets
	if sheets == nil {
		sheets = in.Workbook.Names()
	}
	upload := schema.Upload{FileName: in.FileName, MIME: in.MIME, Sheets: sheets}
	state := tabular.NewValidationState(in.FileName)
	for _, c := range checks {
		c.Check(upload, state)
	}

	if err := in.Workbook.ValidateWorksheets(ctx, pipelines, s.maxParallel); err != nil {
		logger.Warn("submission validation interrupted", "error", err)
		return nil, err
	}
	worksheets := in.Workbook.Validate(workbookRules...)

	submission := state.Snapshot()
	msgs := Flatten(submission, worksheets)
	errCount, warnCount := Counts(msgs)

	result := &Result{
		SubmissionID: id,
		Schema:       in.Schema.Key,
		FileName:     in.FileName,
		MIME:         in.MIME,
		Status:       StatusOf(submission, worksheets),
		Submission:   submission,
		Worksheets:   worksheets,
		Messages:     msgs,
		ErrorCount:   errCount,
		WarningCount: warnCount,
		Unrecognized: in.Unrecognized,
		ValidatedAt:  s.now().UTC(),
	}

	logger.Info("submission validated",
		"worksheets", len(worksheets),
		"status", result.Status,
		"errors", errCount,
		"warnings", warnCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
