package schema

// assemble.go turns a Document into the validator pipelines the engine runs.
// Assembly is deterministic: the same document always yields the same
// ordered pipelines.

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/SurveyIntake/internal/tabular"
)

// Pipeline compiles the worksheet's rules in order.
func (f *FileSchema) Pipeline() ([]tabular.Validator, error) {
	rules, err := f.Rules()
	if err != nil {
		return nil, err
	}
	validators := make([]tabular.Validator, 0, len(rules))
	for _, r := range rules {
		v, err := Compile(r)
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", f.Name, err)
		}
		validators = append(validators, v)
	}
	return validators, nil
}

// WorksheetPipeline returns the pipeline for the named worksheet. A worksheet
// the document does not describe gets an empty pipeline.
func (d *Document) WorksheetPipeline(name string) ([]tabular.Validator, error) {
	f, ok := d.File(name)
	if !ok {
		return nil, nil
	}
	return f.Pipeline()
}

// Pipelines returns a pipeline for every worksheet of wb that the document
// describes, keyed by worksheet name.
func (d *Document) Pipelines(wb *tabular.Workbook) (map[string][]tabular.Validator, error) {
	out := make(map[string][]tabular.Validator)
	for _, name := range wb.Names() {
		p, err := d.WorksheetPipeline(name)
		if err != nil {
			return nil, err
		}
		if len(p) > 0 {
			out[name] = p
		}
	}
	return out, nil
}

// WorkbookPipeline compiles the cross-sheet rules in order.
func (d *Document) WorkbookPipeline() ([]tabular.WorkbookValidator, error) {
	rules, err := d.WorkbookRules()
	if err != nil {
		return nil, err
	}
	out := make([]tabular.WorkbookValidator, len(rules))
	for i, r := range rules {
		out[i] = CompileWorkbook(r)
	}
	return out, nil
}

// Upload describes the uploaded file as a whole.
type Upload struct {
	FileName string
	MIME     string
	Sheets   []string
}

// FileCheck inspects an upload and records file-level errors.
type FileCheck interface {
	Check(u Upload, state *tabular.ValidationState)
}

// FileCheckFunc adapts a function to the FileCheck interface.
type FileCheckFunc func(u Upload, state *tabular.ValidationState)

// Check implements FileCheck.
func (f FileCheckFunc) Check(u Upload, state *tabular.ValidationState) { f(u, state) }

// RequiredFiles records an error for each named sheet missing from the upload.
func RequiredFiles(names []string) FileCheck {
	return FileCheckFunc(func(u Upload, state *tabular.ValidationState) {
		present := make(map[string]bool, len(u.Sheets))
		for _, s := range u.Sheets {
			present[strings.ToLower(s)] = true
		}
		var errs []string
		for _, name := range names {
			if !present[strings.ToLower(name)] {
				errs = append(errs, fmt.Sprintf("Missing required file: %s", name))
			}
		}
		state.AddFileErrors(errs...)
	})
}

// MimeType records an error if the upload's MIME type matches none of the
// patterns. Patterns match case-insensitively.
func MimeType(patterns []string) (FileCheck, error) {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("mimetype pattern %q: %w", p, err)
		}
		res[i] = re
	}

	return FileCheckFunc(func(u Upload, state *tabular.ValidationState) {
		for _, re := range res {
			if re.MatchString(u.MIME) {
				return
			}
		}
		state.AddFileErrors(fmt.Sprintf("File mime type is invalid: %s", u.MIME))
	}), nil
}

// SubmissionChecks compiles the submission-level entries in order.
func (d *Document) SubmissionChecks() ([]FileCheck, error) {
	var checks []FileCheck
	for i, e := range d.Validations {
		switch {
		case e.RequiredFiles != nil && e.MimeType != nil:
			return nil, fmt.Errorf("submission validation %d: entry configures more than one validator", i)
		case e.RequiredFiles != nil:
			checks = append(checks, RequiredFiles(e.RequiredFiles.RequiredFiles))
		case e.MimeType != nil:
			c, err := MimeType(e.MimeType.RegExps)
			if err != nil {
				return nil, fmt.Errorf("submission validation %d: %w", i, err)
			}
			checks = append(checks, c)
		default:
			return nil, fmt.Errorf("submission validation %d: no validator configured", i)
		}
	}
	return checks, nil
}
