package schema

import (
	"path"
	"strings"
)

// Class is a Darwin Core Archive document class.
type Class string

const (
	ClassEvent                Class = "event"
	ClassOccurrence           Class = "occurrence"
	ClassMeasurementOrFact    Class = "measurementorfact"
	ClassResourceRelationship Class = "resourcerelationship"
	ClassTaxon                Class = "taxon"
	ClassMeta                 Class = "meta"
)

// DwCClasses lists the recognized archive document classes.
var DwCClasses = []Class{
	ClassEvent,
	ClassOccurrence,
	ClassMeasurementOrFact,
	ClassResourceRelationship,
	ClassTaxon,
	ClassMeta,
}

// ClassifyDwCFile maps an archive member name to its document class by base
// name, ignoring case, directories and extension. Returns false for files
// that are not part of the archive vocabulary.
func ClassifyDwCFile(name string) (Class, bool) {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if strings.HasPrefix(base, ".") {
		return "", false
	}
	base = strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
	base = strings.NewReplacer("_", "", "-", "", " ", "").Replace(base)

	for _, c := range DwCClasses {
		if base == string(c) {
			return c, true
		}
	}
	return "", false
}

func bound(f float64) *float64 { return &f }

// DarwinCore returns the built-in Darwin Core Archive schema.
func DarwinCore() *Document {
	return &Document{
		Name:        "dwc",
		Label:       "Darwin Core Archive",
		Kind:        KindArchive,
		Description: "Darwin Core Archive (event core with occurrence and measurement extensions)",
		Validations: []SubmissionEntry{
			{RequiredFiles: &RequiredFilesConfig{RequiredFiles: []string{string(ClassEvent), string(ClassOccurrence)}}},
			{MimeType: &MimeTypeConfig{RegExps: []string{`^application/(x-)?zip(-compressed)?$`}}},
		},
		Files: []FileSchema{
			{
				Name: string(ClassEvent),
				Validations: []FileEntry{
					{DuplicateColumns: &struct{}{}},
					{RequiredColumns: &RequiredColumnsConfig{RequiredColumns: []string{"eventID"}}},
					{RecommendedColumns: &RecommendedColumnsConfig{RecommendedColumns: []string{
						"eventDate", "samplingProtocol", "decimalLatitude", "decimalLongitude",
					}}},
					{UniqueColumns: &UniqueColumnsConfig{ColumnNames: []string{"eventID"}}},
				},
				Columns: []ColumnSchema{
					{Name: "eventID", Validations: []ColumnEntry{{Required: &struct{}{}}}},
					{Name: "eventDate", Validations: []ColumnEntry{{Format: &FormatConfig{
						RegExp:         `^\d{4}(-\d{2}(-\d{2}([T ].*)?)?)?(/.*)?$`,
						ExpectedFormat: "Expected an ISO 8601 date such as YYYY-MM-DD",
					}}}},
					{Name: "decimalLatitude", Validations: []ColumnEntry{
						{Range: &RangeConfig{MinValue: bound(-90), MaxValue: bound(90)}},
					}},
					{Name: "decimalLongitude", Validations: []ColumnEntry{
						{Range: &RangeConfig{MinValue: bound(-180), MaxValue: bound(180)}},
					}},
				},
			},
			{
				Name: string(ClassOccurrence),
				Validations: []FileEntry{
					{DuplicateColumns: &struct{}{}},
					{RequiredColumns: &RequiredColumnsConfig{RequiredColumns: []string{"occurrenceID", "eventID", "basisOfRecord"}}},
					{RecommendedColumns: &RecommendedColumnsConfig{RecommendedColumns: []string{"scientificName", "individualCount"}}},
					{UniqueColumns: &UniqueColumnsConfig{ColumnNames: []string{"occurrenceID"}}},
				},
				Columns: []ColumnSchema{
					{Name: "occurrenceID", Validations: []ColumnEntry{{Required: &struct{}{}}}},
					{Name: "eventID", Validations: []ColumnEntry{{Required: &struct{}{}}}},
					{Name: "basisOfRecord", Validations: []ColumnEntry{
						{Required: &struct{}{}},
						{Code: &CodeConfig{AllowedCodeValues: []CodeValueConfig{
							{Name: "HumanObservation"},
							{Name: "MachineObservation"},
							{Name: "PreservedSpecimen"},
							{Name: "LivingSpecimen"},
							{Name: "MaterialSample"},
							{Name: "FossilSpecimen"},
							{Name: "MaterialCitation"},
							{Name: "Occurrence"},
						}}},
					}},
					{Name: "individualCount", Validations: []ColumnEntry{
						{Range: &RangeConfig{MinValue: bound(0)}},
					}},
					{Name: "sex", Validations: []ColumnEntry{{Code: &CodeConfig{AllowedCodeValues: []CodeValueConfig{
						{Name: "male"}, {Name: "female"}, {Name: "hermaphrodite"}, {Name: "undetermined"},
					}}}}},
				},
			},
			{
				Name: string(ClassMeasurementOrFact),
				Validations: []FileEntry{
					{DuplicateColumns: &struct{}{}},
					{RequiredColumns: &RequiredColumnsConfig{RequiredColumns: []string{"occurrenceID", "measurementType", "measurementValue"}}},
					{RecommendedColumns: &RecommendedColumnsConfig{RecommendedColumns: []string{"measurementUnit"}}},
				},
				Columns: []ColumnSchema{
					{Name: "measurementType", Validations: []ColumnEntry{{Required: &struct{}{}}}},
					{Name: "measurementValue", Validations: []ColumnEntry{{Required: &struct{}{}}}},
				},
			},
			{
				Name: string(ClassResourceRelationship),
				Validations: []FileEntry{
					{DuplicateColumns: &struct{}{}},
					{RequiredColumns: &RequiredColumnsConfig{RequiredColumns: []string{"resourceID", "relatedResourceID", "relationshipOfResource"}}},
				},
				Columns: []ColumnSchema{
					{Name: "resourceID", Validations: []ColumnEntry{{Required: &struct{}{}}}},
					{Name: "relatedResourceID", Validations: []ColumnEntry{{Required: &struct{}{}}}},
				},
			},
			{
				Name: string(ClassTaxon),
				Validations: []FileEntry{
					{DuplicateColumns: &struct{}{}},
					{RequiredColumns: &RequiredColumnsConfig{RequiredColumns: []string{"taxonID", "scientificName"}}},
					{UniqueColumns: &UniqueColumnsConfig{ColumnNames: []string{"taxonID"}}},
				},
				Columns: []ColumnSchema{
					{Name: "taxonID", Validations: []ColumnEntry{{Required: &struct{}{}}}},
					{Name: "scientificName", Validations: []ColumnEntry{{Required: &struct{}{}}}},
				},
			},
		},
		WorkbookValidations: []WorkbookValidation{
			{ParentChildKeyMatch: &ParentChildKeyMatchConfig{
				ParentWorksheetName: string(ClassEvent),
				ChildWorksheetName:  string(ClassOccurrence),
				ColumnNames:         []string{"eventID"},
			}},
			{ParentChildKeyMatch: &ParentChildKeyMatchConfig{
				ParentWorksheetName: string(ClassOccurrence),
				ChildWorksheetName:  string(ClassMeasurementOrFact),
				ColumnNames:         []string{"occurrenceID"},
			}},
		},
	}
}
