package loader

import (
	"context"
	"errors"
	"testing"
)

type stubLoader struct {
	records []Record
	err     error
}

func (s *stubLoader) Load(_ context.Context) ([]Record, error) {
	return s.records, s.err
}

func TestRecord_Get(t *testing.T) {
	record := Record{"COHORT": " PD ", "COHORT_SIMPLE": "", "PATNO": "3000"}

	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{name: "single field trimmed", names: []string{"COHORT"}, want: "PD"},
		{name: "skips empty alias", names: []string{"COHORT_SIMPLE", "COHORT"}, want: "PD"},
		{name: "missing field", names: []string{"APOE"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := record.Get(tt.names...); got != tt.want {
				t.Errorf("Get(%v) = %q, want %q", tt.names, got, tt.want)
			}
		})
	}
}

func TestTableSet_NilLoader(t *testing.T) {
	ts := &TableSet{}
	rows, err := ts.LoadMeasurements(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rows != nil {
		t.Fatalf("expected nil rows for absent table, got %v", rows)
	}
}

func TestTableSet_LoadMeasurements(t *testing.T) {
	ts := &TableSet{
		Measurements: &stubLoader{records: []Record{
			{"PATNO": "3000", "TESTNAME": "ABeta 1-42", "TESTVALUE": "120.5", "AGE": "63.4"},
		}},
	}
	rows, err := ts.LoadMeasurements(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].PatientKey != "3000" || rows[0].TestName != "ABeta 1-42" {
		t.Errorf("unexpected row: %+v", rows[0])
	}
	if rows[0].AgeAtVisit != "63.4" {
		t.Errorf("AGE alias must feed AgeAtVisit, got %q", rows[0].AgeAtVisit)
	}
}

func TestTableSet_LoadDiagnoses_CohortAlias(t *testing.T) {
	ts := &TableSet{
		Diagnoses: &stubLoader{records: []Record{
			{"PATNO": "3000", "COHORT_SIMPLE": "PD"},
			{"PATNO": "3001", "COHORT": "Control"},
		}},
	}
	rows, err := ts.LoadDiagnoses(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rows[0].Cohort != "PD" || rows[1].Cohort != "Control" {
		t.Errorf("unexpected cohorts: %q, %q", rows[0].Cohort, rows[1].Cohort)
	}
}

func TestTableSet_LoaderErrorPropagates(t *testing.T) {
	wantErr := errors.New("table unavailable")
	ts := &TableSet{Genetics: &stubLoader{err: wantErr}}
	if _, err := ts.LoadGenetics(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}
