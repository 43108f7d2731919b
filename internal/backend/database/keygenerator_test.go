package database

import (
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"
)

func Test_generateID_FormatAndUniqueness(t *testing.T) {
	// UUID v4 pattern: 8-4-4-4-12 hex, version 4 and variant 10xx
	uuidV4Pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	const n = 256
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		got, err := generateID()
		if err != nil {
			t.Fatalf("generateID() returned error: %v", err)
		}
		if !uuidV4Pattern.MatchString(got) {
			t.Fatalf("generateID() returned invalid UUID v4 format: %q", got)
		}
		if _, dup := seen[got]; dup {
			t.Fatalf("generateID() returned duplicate UUID: %q", got)
		}
		seen[got] = struct{}{}
	}
}

func TestNewPrediction_PopulatesAllFields(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 12, 11, 12, 345678901, time.FixedZone("WIB", 7*3600))

	p, err := NewPrediction("Cancer", "Segera periksa ke dokter!", createdAt)
	if err != nil {
		t.Fatalf("NewPrediction error: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid prediction, got %v", err)
	}
	if p.CreatedAt.Location() != time.UTC {
		t.Errorf("expected UTC creation time, got %v", p.CreatedAt.Location())
	}
	if p.CreatedAt.Nanosecond() != 345000000 {
		t.Errorf("expected millisecond precision, got %d ns", p.CreatedAt.Nanosecond())
	}
}

func TestPrediction_Validate(t *testing.T) {
	valid := Prediction{ID: "a", Result: "Cancer", Suggestion: "s", CreatedAt: time.Now()}

	tests := []struct {
		name   string
		mutate func(p *Prediction)
	}{
		{"missing id", func(p *Prediction) { p.ID = "" }},
		{"missing result", func(p *Prediction) { p.Result = "" }},
		{"missing suggestion", func(p *Prediction) { p.Suggestion = "" }},
		{"missing createdAt", func(p *Prediction) { p.CreatedAt = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}

	var nilPrediction *Prediction
	if err := nilPrediction.Validate(); err == nil {
		t.Errorf("expected error for nil prediction")
	}
}

func TestPrediction_MarshalJSON(t *testing.T) {
	p := Prediction{
		ID:         "id-1",
		Result:     "Non-cancer",
		Suggestion: "Penyakit kanker tidak terdeteksi.",
		CreatedAt:  time.Date(2024, 5, 1, 10, 11, 12, 0, time.UTC),
	}
	got, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON error: %v", err)
	}
	want := `{"id":"id-1","result":"Non-cancer","suggestion":"Penyakit kanker tidak terdeteksi.","createdAt":"2024-05-01T10:11:12.000Z"}`
	if string(got) != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}
}

func TestPrediction_DBTagsMatchColumns(t *testing.T) {
	tags := map[string]bool{}
	typ := reflect.TypeOf(Prediction{})
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("db"); tag != "" {
			tags[tag] = true
		}
	}

	columns := strings.Split(predictionColumns, ", ")
	if len(columns) != len(tags) {
		t.Fatalf("expected %d tagged fields, got %d (%v)", len(columns), len(tags), tags)
	}
	for _, column := range columns {
		if !tags[column] {
			t.Errorf("column %q has no Prediction field with a matching db tag", column)
		}
	}
}
