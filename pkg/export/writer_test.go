package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"ppmigraph/pkg/common"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse %s: %v", path, err)
	}
	return records
}

func TestWriteNodes_HeaderAndRows(t *testing.T) {
	target := filepath.Join(t.TempDir(), "graph_data")
	w, err := NewWriter(target)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	defer w.Discard()

	nodes := []*common.Node{
		{
			Kind: common.NodeKindCohort,
			ID:   "PD",
			Attrs: map[string]any{
				"fullName": "Parkinson's Disease",
			},
		},
		{
			Kind:  common.NodeKindCohort,
			ID:    "HC",
			Attrs: map[string]any{},
		},
	}
	if err := w.WriteNodes(common.NodeKindCohort, nodes); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	records := readCSV(t, filepath.Join(target, "cohorts_nodes.csv"))
	wantHeader := []string{"cohortId:ID", ":LABEL", "fullName"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("header = %v, want %v", records[0], wantHeader)
	}
	if !reflect.DeepEqual(records[1], []string{"PD", "Cohort", "Parkinson's Disease"}) {
		t.Errorf("row 1 = %v", records[1])
	}
	if !reflect.DeepEqual(records[2], []string{"HC", "Cohort", ""}) {
		t.Errorf("row 2 = %v, absent attribute must serialize empty", records[2])
	}
}

func TestWriteNodes_TypedHeaderSuffixes(t *testing.T) {
	target := filepath.Join(t.TempDir(), "graph_data")
	w, err := NewWriter(target)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	defer w.Discard()

	if err := w.WriteNodes(common.NodeKindPatient, nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	records := readCSV(t, filepath.Join(target, "patients_nodes.csv"))
	want := []string{
		"patientId:ID", ":LABEL",
		"sex:int", "sexLabel", "birthDate", "handedness:int",
		"hispanicLatino:int", "raceWhite:int", "raceBlack:int", "raceAsian:int",
	}
	if !reflect.DeepEqual(records[0], want) {
		t.Errorf("header = %v, want %v", records[0], want)
	}
}

func TestWriteRelationships_CanonicalValues(t *testing.T) {
	target := filepath.Join(t.TempDir(), "graph_data")
	w, err := NewWriter(target)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	defer w.Discard()

	rels := []*common.Relationship{
		{
			Kind:    common.RelKindMeasured,
			StartID: "3000",
			EndID:   "ABeta 1-42",
			Props: map[string]any{
				"value":     120.5,
				"age":       63.0,
				"date":      "2021-03-01",
				"projectId": int64(125),
			},
		},
		{
			Kind:    common.RelKindMeasured,
			StartID: "3000",
			EndID:   "ABeta 1-42",
			Props: map[string]any{
				"date": "2021-09-01",
			},
		},
	}
	if err := w.WriteRelationships(common.RelKindMeasured, rels); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	records := readCSV(t, filepath.Join(target, "measured_rels.csv"))
	wantHeader := []string{":START_ID", ":TYPE", ":END_ID", "value:float", "age:float", "date", "clinicalEvent", "projectId:int"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("header = %v, want %v", records[0], wantHeader)
	}
	if !reflect.DeepEqual(records[1], []string{"3000", "MEASURED", "ABeta 1-42", "120.5", "63", "2021-03-01", "", "125"}) {
		t.Errorf("row 1 = %v", records[1])
	}
	if !reflect.DeepEqual(records[2], []string{"3000", "MEASURED", "ABeta 1-42", "", "", "2021-09-01", "", ""}) {
		t.Errorf("row 2 = %v, absent props must serialize empty", records[2])
	}
}

func TestWriter_QuotingRoundTrip(t *testing.T) {
	target := filepath.Join(t.TempDir(), "graph_data")
	w, err := NewWriter(target)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	defer w.Discard()

	tricky := `Total "free" tau, CSF`
	nodes := []*common.Node{
		{Kind: common.NodeKindBiomarker, ID: tricky, Attrs: map[string]any{"units": "pg/ml"}},
	}
	if err := w.WriteNodes(common.NodeKindBiomarker, nodes); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	records := readCSV(t, filepath.Join(target, "biomarkers_nodes.csv"))
	if records[1][0] != tricky {
		t.Errorf("ID round-trip = %q, want %q", records[1][0], tricky)
	}
}

func TestWriter_CommitMovesCompleteSet(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "graph_data")
	w, err := NewWriter(target)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if err := w.WriteNodes(common.NodeKindPatient, nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := w.WriteRelationships(common.RelKindHasCohort, nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := w.WriteSchemaDoc("# schema\n"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	// Nothing reaches the target before commit.
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("target directory must not exist before commit, stat err = %v", err)
	}

	if err := w.Commit(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	for _, name := range []string{"patients_nodes.csv", "has_cohort_rels.csv", "GRAPH_SCHEMA.md"} {
		if _, err := os.Stat(filepath.Join(target, name)); err != nil {
			t.Errorf("expected %s in target directory: %v", name, err)
		}
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".staging-") {
			t.Errorf("staging directory %s left behind after commit", entry.Name())
		}
	}
}

func TestWriter_CommitIntoExistingTarget(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "graph_data")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	w, err := NewWriter(target)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	defer w.Discard()

	if err := w.WriteNodes(common.NodeKindPatient, nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := w.WriteSchemaDoc("# schema\n"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	for _, name := range []string{"patients_nodes.csv", "GRAPH_SCHEMA.md"} {
		if _, err := os.Stat(filepath.Join(target, name)); err != nil {
			t.Errorf("expected %s in target directory: %v", name, err)
		}
	}
}

func TestWriter_FailedCommitLeavesNoPartialSet(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "graph_data")

	// An unmovable obstruction: a directory occupying one of the
	// output file names inside an existing target.
	if err := os.MkdirAll(filepath.Join(target, "measured_rels.csv"), 0o755); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	w, err := NewWriter(target)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	defer w.Discard()

	for _, kind := range common.NodeKinds {
		if err := w.WriteNodes(kind, nil); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}
	for _, kind := range common.RelKinds {
		if err := w.WriteRelationships(kind, nil); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}

	if err := w.Commit(); err == nil {
		t.Fatal("expected commit to fail, got nil")
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != "measured_rels.csv" {
			t.Errorf("partial output left in target after failed commit: %s", entry.Name())
		}
	}

	// The staged set survives intact for diagnosis until Discard.
	staged, err := os.ReadDir(w.stagingDir)
	if err != nil {
		t.Fatalf("expected staging directory to survive, got %v", err)
	}
	if len(staged) != len(common.NodeKinds)+len(common.RelKinds) {
		t.Errorf("expected %d staged files after rollback, got %d",
			len(common.NodeKinds)+len(common.RelKinds), len(staged))
	}
}

func TestWriter_DiscardLeavesNoOutput(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "graph_data")
	w, err := NewWriter(target)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if err := w.WriteNodes(common.NodeKindPatient, nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	w.Discard()

	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("target directory must not exist after discard, stat err = %v", err)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty base directory after discard, found %d entries", len(entries))
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		propType common.PropType
		want     string
		wantErr  bool
	}{
		{name: "nil is empty", value: nil, propType: common.PropTypeFloat, want: ""},
		{name: "float plain decimal", value: 120.5, propType: common.PropTypeFloat, want: "120.5"},
		{name: "float integral drops fraction", value: 63.0, propType: common.PropTypeFloat, want: "63"},
		{name: "small float no exponent", value: 0.00015, propType: common.PropTypeFloat, want: "0.00015"},
		{name: "int base ten", value: int64(125), propType: common.PropTypeInt, want: "125"},
		{name: "bool lowercase", value: true, propType: common.PropTypeBoolean, want: "true"},
		{name: "string passthrough", value: "BL", propType: common.PropTypeString, want: "BL"},
		{name: "type mismatch errors", value: "120.5", propType: common.PropTypeFloat, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatValue(tt.value, tt.propType)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}
