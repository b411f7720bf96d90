package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument wraps every structural problem found while loading a
// schema document.
var ErrInvalidDocument = errors.New("invalid schema document")

var validate = validator.New()

// Parse decodes a YAML or JSON schema document and checks it. The returned
// document is guaranteed to compile.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if err := doc.Check(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Check validates struct tags and compiles every rule once, so that a
// document that passes Check never fails later at assembly time.
func (d *Document) Check() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w %q: %s", ErrInvalidDocument, d.Name, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w %q: %v", ErrInvalidDocument, d.Name, err)
	}

	seen := make(map[string]bool, len(d.Files))
	for _, f := range d.Files {
		key := strings.ToLower(f.Name)
		if seen[key] {
			return fmt.Errorf("%w %q: file %q listed twice", ErrInvalidDocument, d.Name, f.Name)
		}
		seen[key] = true

		if _, err := f.Pipeline(); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidDocument, d.Name, err)
		}
	}
	if _, err := d.WorkbookPipeline(); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidDocument, d.Name, err)
	}
	if _, err := d.SubmissionChecks(); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidDocument, d.Name, err)
	}
	return nil
}

// LoadFile reads one schema document from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// LoadDir reads every .yaml, .yml and .json document in dir, sorted by file
// name.
func LoadDir(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading schema directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]*Document, 0, len(names))
	for _, name := range names {
		doc, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
