package tabular

import (
	"reflect"
	"strings"
	"testing"
)

func float(f float64) *float64 { return &f }

func sheet(rows ...[]string) *Worksheet {
	return NewWorksheet("test", StringGrid(rows))
}

func headerCols(errs []HeaderError) []string {
	cols := make([]string, len(errs))
	for i, e := range errs {
		cols[i] = e.Col
	}
	return cols
}

// ============================================================================
// Header rules
// ============================================================================

func TestDuplicateHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    []string
	}{
		{"repeats", []string{"A", "B", "A", "C", "B", "D"}, []string{"A", "B"}},
		{"unique", []string{"A", "B", "C"}, []string{}},
		{"triple reported once", []string{"A", "A", "A"}, []string{"A"}},
		{"case sensitive", []string{"A", "a"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := sheet(tt.headers).Validate(DuplicateHeaders())
			if got := headerCols(snap.HeaderErrors); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("duplicate cols = %v, want %v", got, tt.want)
			}
			for _, e := range snap.HeaderErrors {
				if e.ErrorCode != DuplicateHeader {
					t.Errorf("ErrorCode = %s, want %s", e.ErrorCode, DuplicateHeader)
				}
			}
			if snap.IsValid != (len(tt.want) == 0) {
				t.Errorf("IsValid = %v, want %v", snap.IsValid, len(tt.want) == 0)
			}
		})
	}
}

func TestRequiredHeaders(t *testing.T) {
	snap := sheet([]string{"A", "B"}).Validate(RequiredHeaders([]string{"A", "C"}))

	if len(snap.HeaderErrors) != 1 {
		t.Fatalf("len(HeaderErrors) = %d, want 1", len(snap.HeaderErrors))
	}
	e := snap.HeaderErrors[0]
	if e.ErrorCode != MissingRequiredHeader || e.Col != "C" {
		t.Errorf("error = %+v, want MISSING_REQUIRED_HEADER on C", e)
	}
	if snap.IsValid {
		t.Error("IsValid = true, want false")
	}
}

func TestRequiredHeaders_CaseInsensitive(t *testing.T) {
	snap := sheet([]string{"EventID"}).Validate(RequiredHeaders([]string{"eventid"}))
	if len(snap.HeaderErrors) != 0 {
		t.Errorf("HeaderErrors = %v, want none", snap.HeaderErrors)
	}
}

func TestRequiredHeaders_EmptyConfig(t *testing.T) {
	snap := sheet([]string{"A"}).Validate(RequiredHeaders(nil))
	if len(snap.HeaderErrors) != 0 || !snap.IsValid {
		t.Errorf("snapshot = %+v, want untouched", snap)
	}
}

func TestRecommendedHeaders_IsWarning(t *testing.T) {
	snap := sheet([]string{"A"}).Validate(RecommendedHeaders([]string{"A", "B"}))

	if got := headerCols(snap.HeaderErrors); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("missing = %v, want [B]", got)
	}
	if snap.HeaderErrors[0].ErrorCode != MissingRecommendedHeader {
		t.Errorf("ErrorCode = %s, want %s", snap.HeaderErrors[0].ErrorCode, MissingRecommendedHeader)
	}
	if !snap.IsValid {
		t.Error("IsValid = false, want true for warnings")
	}
}

func TestRecommendedHeaders_NoHeaders(t *testing.T) {
	ws := NewWorksheet("empty", nil)
	snap := ws.Validate(RecommendedHeaders([]string{"A", "B"}))

	if got := headerCols(snap.HeaderErrors); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("missing = %v, want [A B]", got)
	}
}

func TestValidHeaders(t *testing.T) {
	snap := sheet([]string{"eventID", "Mystery", "EVENTDATE"}).
		Validate(ValidHeaders([]string{"eventId", "eventDate"}))

	if got := headerCols(snap.HeaderErrors); !reflect.DeepEqual(got, []string{"Mystery"}) {
		t.Errorf("unknown = %v, want [Mystery]", got)
	}
	if snap.HeaderErrors[0].ErrorCode != UnknownHeader {
		t.Errorf("ErrorCode = %s, want %s", snap.HeaderErrors[0].ErrorCode, UnknownHeader)
	}
	if !snap.IsValid {
		t.Error("IsValid = false, want true for warnings")
	}
}

func TestValidHeaders_EmptyConfig(t *testing.T) {
	snap := sheet([]string{"anything"}).Validate(ValidHeaders([]string{}))
	if len(snap.HeaderErrors) != 0 {
		t.Errorf("HeaderErrors = %v, want none", snap.HeaderErrors)
	}
}

// ============================================================================
// Row rules
// ============================================================================

func TestRequiredField(t *testing.T) {
	ws := sheet(
		[]string{"id", "count"},
		[]string{"1", "5"},
		[]string{"2", ""},
		[]string{"3", "  "},
	)
	snap := ws.Validate(RequiredField("count"))

	if len(snap.RowErrors) != 2 {
		t.Fatalf("len(RowErrors) = %d, want 2", len(snap.RowErrors))
	}
	if snap.RowErrors[0].Row != 3 || snap.RowErrors[1].Row != 4 {
		t.Errorf("rows = %d, %d, want 3, 4", snap.RowErrors[0].Row, snap.RowErrors[1].Row)
	}
	if snap.RowErrors[0].ErrorCode != MissingRequiredField || snap.RowErrors[0].Col != "count" {
		t.Errorf("error = %+v", snap.RowErrors[0])
	}
}

func TestRequiredField_ZeroIsPresent(t *testing.T) {
	ws := NewWorksheet("s", NewGrid([][]RawCell{
		{Text("count")},
		{Number(0)},
	}))
	if snap := ws.Validate(RequiredField("count")); len(snap.RowErrors) != 0 {
		t.Errorf("RowErrors = %v, want none for numeric zero", snap.RowErrors)
	}
}

func TestRequiredField_MissingColumnSkipped(t *testing.T) {
	ws := sheet([]string{"id"}, []string{"1"})
	snap := ws.Validate(RequiredField("count"))
	if len(snap.RowErrors) != 0 || !snap.IsValid {
		t.Errorf("snapshot = %+v, want untouched", snap)
	}
}

func TestCodeValues(t *testing.T) {
	ws := sheet(
		[]string{"sex"},
		[]string{"male"},
		[]string{"FEMALE"},
		[]string{""},
		[]string{"both"},
	)
	snap := ws.Validate(CodeValues("sex", []CodeValue{{Name: "Male"}, {Name: "Female"}}))

	if len(snap.RowErrors) != 1 {
		t.Fatalf("len(RowErrors) = %d, want 1", len(snap.RowErrors))
	}
	e := snap.RowErrors[0]
	if e.Row != 5 || e.ErrorCode != InvalidValue {
		t.Errorf("error = %+v, want INVALID_VALUE on row 5", e)
	}
	if want := "Invalid value: both. Must be one of [Male, Female]"; e.Message != want {
		t.Errorf("Message = %q, want %q", e.Message, want)
	}
}

func TestNumericField(t *testing.T) {
	ws := sheet(
		[]string{"count"},
		[]string{"12"},
		[]string{"1.5e2"},
		[]string{"twelve"},
		[]string{""},
	)
	snap := ws.Validate(NumericField("count"))

	if len(snap.RowErrors) != 1 {
		t.Fatalf("len(RowErrors) = %d, want 1", len(snap.RowErrors))
	}
	if snap.RowErrors[0].Row != 4 || snap.RowErrors[0].ErrorCode != InvalidValue {
		t.Errorf("error = %+v, want INVALID_VALUE on row 4", snap.RowErrors[0])
	}
}

func TestRangeField(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		min, max *float64
		code     ErrorCode
		contains string
	}{
		{"below", "4", float(5), float(10), OutOfRange, "between 5 and 10"},
		{"above", "11", float(5), float(10), OutOfRange, "between 5 and 10"},
		{"not a number", "a", float(5), float(10), InvalidValue, "valid number"},
		{"max only", "11", nil, float(10), OutOfRange, "less than or equal to 10"},
		{"min only", "-1", float(0), nil, OutOfRange, "greater than or equal to 0"},
		{"inside", "7", float(5), float(10), "", ""},
		{"inclusive bound", "10", float(5), float(10), "", ""},
		{"no bounds", "1000", nil, nil, "", ""},
		{"no bounds non-numeric", "a", nil, nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := sheet([]string{"n"}, []string{tt.value}).Validate(RangeField("n", tt.min, tt.max))

			if tt.code == "" {
				if len(snap.RowErrors) != 0 {
					t.Errorf("RowErrors = %v, want none", snap.RowErrors)
				}
				return
			}
			if len(snap.RowErrors) != 1 {
				t.Fatalf("len(RowErrors) = %d, want 1", len(snap.RowErrors))
			}
			e := snap.RowErrors[0]
			if e.ErrorCode != tt.code {
				t.Errorf("ErrorCode = %s, want %s", e.ErrorCode, tt.code)
			}
			if !strings.Contains(e.Message, tt.contains) {
				t.Errorf("Message = %q, want it to contain %q", e.Message, tt.contains)
			}
		})
	}
}

func TestFormatField(t *testing.T) {
	v, err := FormatField("date", `^\d{4}-\d{2}-\d{2}$`, "", "Expected YYYY-MM-DD")
	if err != nil {
		t.Fatalf("FormatField() error = %v", err)
	}
	ws := sheet(
		[]string{"date"},
		[]string{"2024-01-02"},
		[]string{"02/01/2024"},
		[]string{""},
	)
	snap := ws.Validate(v)

	if len(snap.RowErrors) != 1 {
		t.Fatalf("len(RowErrors) = %d, want 1", len(snap.RowErrors))
	}
	e := snap.RowErrors[0]
	if e.ErrorCode != UnexpectedFormat || e.Row != 3 {
		t.Errorf("error = %+v, want UNEXPECTED_FORMAT on row 3", e)
	}
	if want := "Unexpected Format: 02/01/2024. Expected YYYY-MM-DD"; e.Message != want {
		t.Errorf("Message = %q, want %q", e.Message, want)
	}
}

func TestFormatField_Flags(t *testing.T) {
	v, err := FormatField("code", `^abc$`, "gi", "abc")
	if err != nil {
		t.Fatalf("FormatField() error = %v", err)
	}
	snap := sheet([]string{"code"}, []string{"ABC"}).Validate(v)
	if len(snap.RowErrors) != 0 {
		t.Errorf("RowErrors = %v, want none with i flag", snap.RowErrors)
	}
}

func TestFormatField_EmptyPatternInert(t *testing.T) {
	v, err := FormatField("code", "", "", "")
	if err != nil {
		t.Fatalf("FormatField() error = %v", err)
	}
	snap := sheet([]string{"code"}, []string{"anything"}).Validate(v)
	if len(snap.RowErrors) != 0 || !snap.IsValid {
		t.Errorf("snapshot = %+v, want untouched", snap)
	}
}

func TestFormatField_BadConfig(t *testing.T) {
	if _, err := FormatField("c", `(`, "", ""); err == nil {
		t.Error("FormatField() with bad pattern: expected error")
	}
	if _, err := FormatField("c", `a`, "x", ""); err == nil {
		t.Error("FormatField() with bad flag: expected error")
	}
}

func TestUniqueRows(t *testing.T) {
	ws := sheet(
		[]string{"H1", "H2"},
		[]string{"1", "2"},
		[]string{"2", "2"},
		[]string{"2", "2"},
	)
	snap := ws.Validate(UniqueRows([]string{"H1", "H2"}))

	if len(snap.RowErrors) != 1 {
		t.Fatalf("len(RowErrors) = %d, want 1", len(snap.RowErrors))
	}
	if e := snap.RowErrors[0]; e.Row != 4 || e.ErrorCode != NonUniqueKey {
		t.Errorf("error = %+v, want NON_UNIQUE_KEY on row 4", e)
	}
}

func TestUniqueRows_NormalizesCase(t *testing.T) {
	ws := sheet(
		[]string{"id"},
		[]string{"Abc"},
		[]string{" abc "},
	)
	if snap := ws.Validate(UniqueRows([]string{"ID"})); len(snap.RowErrors) != 1 {
		t.Errorf("len(RowErrors) = %d, want 1", len(snap.RowErrors))
	}
}

func TestUniqueRows_MissingColumnSkipsAll(t *testing.T) {
	ws := sheet(
		[]string{"H1"},
		[]string{"1"},
		[]string{"1"},
	)
	if snap := ws.Validate(UniqueRows([]string{"H1", "H2"})); len(snap.RowErrors) != 0 {
		t.Errorf("RowErrors = %v, want none when a key column is absent", snap.RowErrors)
	}
}

// ============================================================================
// Pipeline properties
// ============================================================================

func TestValidate_Idempotent(t *testing.T) {
	rows := [][]string{
		{"id", "n", "id"},
		{"1", "x", ""},
		{"1", "", ""},
	}
	rangeV := RangeField("n", float(0), float(1))
	pipeline := []Validator{
		DuplicateHeaders(),
		RequiredField("n"),
		rangeV,
		UniqueRows([]string{"id"}),
	}

	a := NewWorksheet("s", StringGrid(rows)).Validate(pipeline...)
	b := NewWorksheet("s", StringGrid(rows)).Validate(pipeline...)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("re-run differs:\n%+v\n%+v", a, b)
	}
}

func TestValidate_CollectsEverything(t *testing.T) {
	ws := sheet(
		[]string{"id", "count"},
		[]string{"", "x"},
		[]string{"", "-1"},
	)
	snap := ws.Validate(
		RequiredHeaders([]string{"missing"}),
		RequiredField("id"),
		RangeField("count", float(0), nil),
	)

	if len(snap.HeaderErrors) != 1 {
		t.Errorf("len(HeaderErrors) = %d, want 1", len(snap.HeaderErrors))
	}
	// two missing ids, one non-number, one out of range
	if len(snap.RowErrors) != 4 {
		t.Errorf("len(RowErrors) = %d, want 4", len(snap.RowErrors))
	}
}
