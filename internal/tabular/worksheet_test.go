package tabular

import (
	"reflect"
	"testing"
	"time"
)

func TestWorksheet_Headers(t *testing.T) {
	ws := NewWorksheet("event", StringGrid([][]string{
		{" eventID ", "eventDate", "Sampling Protocol"},
		{"e1", "2024-01-01", "net"},
	}))

	want := []string{"eventID", "eventDate", "Sampling Protocol"}
	if got := ws.Headers(); !reflect.DeepEqual(got, want) {
		t.Errorf("Headers() = %v, want %v", got, want)
	}

	wantLower := []string{"eventid", "eventdate", "sampling protocol"}
	if got := ws.HeadersLowerCase(); !reflect.DeepEqual(got, wantLower) {
		t.Errorf("HeadersLowerCase() = %v, want %v", got, wantLower)
	}
}

func TestWorksheet_EmptyGrid(t *testing.T) {
	for _, ws := range []*Worksheet{
		NewWorksheet("nil", nil),
		NewWorksheet("blank", NewGrid(nil)),
	} {
		if got := ws.Headers(); len(got) != 0 {
			t.Errorf("%s: Headers() = %v, want empty", ws.Name(), got)
		}
		if got := ws.Rows(); len(got) != 0 {
			t.Errorf("%s: Rows() = %v, want empty", ws.Name(), got)
		}
		if got := ws.RowObjects(); len(got) != 0 {
			t.Errorf("%s: RowObjects() = %v, want empty", ws.Name(), got)
		}
	}
}

func TestWorksheet_HeaderIndex(t *testing.T) {
	ws := NewWorksheet("s", StringGrid([][]string{{"A", "B", "C"}}))

	tests := []struct {
		name string
		want int
	}{
		{"A", 0},
		{"C", 2},
		{"c", -1},
		{"D", -1},
	}
	for _, tt := range tests {
		if got := ws.HeaderIndex(tt.name); got != tt.want {
			t.Errorf("HeaderIndex(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestWorksheet_Rows_DropsBlankAndPads(t *testing.T) {
	ws := NewWorksheet("s", StringGrid([][]string{
		{"A", "B", "C"},
		{"1"},
		{"", "  ", ""},
		{},
		{" x ", "", "z"},
	}))

	rows := ws.Rows()
	if len(rows) != 2 {
		t.Fatalf("len(Rows()) = %d, want 2", len(rows))
	}
	for i, row := range rows {
		if len(row) != len(ws.Headers()) {
			t.Errorf("len(row %d) = %d, want %d", i, len(row), len(ws.Headers()))
		}
	}
	if got := rows[1][0].String(); got != "x" {
		t.Errorf("rows[1][0] = %q, want trimmed %q", got, "x")
	}
	if !rows[0][1].IsEmpty() {
		t.Errorf("rows[0][1] = %v, want empty padding cell", rows[0][1])
	}
}

func TestWorksheet_OffsetRange(t *testing.T) {
	cells := [][]RawCell{
		{},
		{{}, Text("A"), Text("B")},
		{{}, Number(1), Number(2.5)},
	}
	ws := NewWorksheet("s", NewGrid(cells))

	if got, want := ws.Headers(), []string{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Headers() = %v, want %v", got, want)
	}
	cell, ok := ws.Cell("B", 0)
	if !ok {
		t.Fatal("Cell(B, 0) not found")
	}
	if cell.String() != "2.5" {
		t.Errorf("Cell(B, 0) = %q, want %q", cell.String(), "2.5")
	}
}

func TestWorksheet_DateCellsNormalized(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	ws := NewWorksheet("s", NewGrid([][]RawCell{
		{Text("eventDate")},
		{Date(day)},
	}))

	cell, ok := ws.Cell("eventDate", 0)
	if !ok {
		t.Fatal("Cell(eventDate, 0) not found")
	}
	if want := "2024-03-05T00:00:00.000Z"; cell.String() != want {
		t.Errorf("date cell = %q, want %q", cell.String(), want)
	}
}

func TestWorksheet_RowObjects(t *testing.T) {
	ws := NewWorksheet("s", StringGrid([][]string{
		{"id", "name"},
		{"1", "alpha"},
		{"2", "beta"},
	}))

	objs := ws.RowObjects()
	if len(objs) != 2 {
		t.Fatalf("len(RowObjects()) = %d, want 2", len(objs))
	}
	if got := objs[1]["name"].String(); got != "beta" {
		t.Errorf("RowObjects()[1][name] = %q, want %q", got, "beta")
	}
}

func TestWorksheet_Cell_OutOfBounds(t *testing.T) {
	ws := NewWorksheet("s", StringGrid([][]string{{"A"}, {"1"}}))

	if _, ok := ws.Cell("Z", 0); ok {
		t.Error("Cell(unknown header) ok = true, want false")
	}
	if _, ok := ws.Cell("A", 1); ok {
		t.Error("Cell(row past end) ok = true, want false")
	}
	if _, ok := ws.Cell("A", -1); ok {
		t.Error("Cell(negative row) ok = true, want false")
	}
}

func TestWorksheet_ViewsIdempotent(t *testing.T) {
	ws := NewWorksheet("s", StringGrid([][]string{{"A", "B"}, {"1", "2"}}))

	first := ws.Rows()
	second := ws.Rows()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Rows() not stable: %v vs %v", first, second)
	}
}

func TestCell_Float(t *testing.T) {
	tests := []struct {
		cell Cell
		want float64
		ok   bool
	}{
		{Cell{Kind: CellNumber, Number: 4}, 4, true},
		{Cell{Kind: CellString, Text: "12.5"}, 12.5, true},
		{Cell{Kind: CellString, Text: "-3"}, -3, true},
		{Cell{Kind: CellString, Text: "1e3"}, 1000, true},
		{Cell{Kind: CellString, Text: "a"}, 0, false},
		{Cell{Kind: CellString, Text: "1,000"}, 0, false},
		{Cell{Kind: CellBool, Text: "true"}, 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.cell.Float()
		if ok != tt.ok || got != tt.want {
			t.Errorf("Float(%v) = (%v, %v), want (%v, %v)", tt.cell, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValidationState_WarningsKeepValid(t *testing.T) {
	s := NewValidationState("f")
	s.AddHeaderWarnings(HeaderError{ErrorCode: UnknownHeader, Message: "x", Col: "c"})
	if !s.IsValid() {
		t.Error("IsValid() = false after warning, want true")
	}

	s.AddRowErrors()
	if !s.IsValid() {
		t.Error("IsValid() = false after empty batch, want true")
	}

	s.AddRowErrors(RowError{ErrorCode: InvalidValue, Message: "x", Col: "c", Row: 2})
	if s.IsValid() {
		t.Error("IsValid() = true after error, want false")
	}

	s.AddHeaderWarnings(HeaderError{ErrorCode: UnknownHeader})
	if s.IsValid() {
		t.Error("IsValid() reset by warning, want false")
	}
}

func TestValidationState_SnapshotStable(t *testing.T) {
	s := NewValidationState("f")
	s.AddKeyErrors(KeyError{ErrorCode: DanglingParentChildKey, ColNames: []string{"a"}, Rows: []int{3}})
	s.AddFileErrors("bad file")

	a := s.Snapshot()
	b := s.Snapshot()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("snapshots differ: %+v vs %+v", a, b)
	}

	a.KeyErrors[0].Rows[0] = 99
	if s.Snapshot().KeyErrors[0].Rows[0] != 3 {
		t.Error("mutating a snapshot changed the state")
	}
}

func TestErrorCodes_Verbatim(t *testing.T) {
	want := []string{
		"DUPLICATE_HEADER",
		"UNKNOWN_HEADER",
		"MISSING_REQUIRED_HEADER",
		"MISSING_RECOMMENDED_HEADER",
		"MISSING_REQUIRED_FIELD",
		"OUT_OF_RANGE",
		"INVALID_VALUE",
		"UNEXPECTED_FORMAT",
		"NON_UNIQUE_KEY",
		"DANGLING_PARENT_CHILD_KEY",
	}
	if len(ErrorCodes) != len(want) {
		t.Fatalf("len(ErrorCodes) = %d, want %d", len(ErrorCodes), len(want))
	}
	for i, c := range ErrorCodes {
		if string(c) != want[i] {
			t.Errorf("ErrorCodes[%d] = %q, want %q", i, c, want[i])
		}
	}
}
