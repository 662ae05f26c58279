package loader

import (
	"context"
	"strings"

	"ppmigraph/pkg/source"
)

// Record is one raw source row addressed by field name, as produced by
// a TableLoader before typed decoding.
type Record map[string]string

// Get returns the first non-empty value among the given field names.
// Source exports have drifted in column naming over releases, so a
// logical field may map to more than one header.
func (r Record) Get(names ...string) string {
	for _, name := range names {
		if value, ok := r[name]; ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// TableLoader materializes one source table as raw records.
// Implementations may read from local files or remote archives.
type TableLoader interface {
	Load(ctx context.Context) ([]Record, error)
}

// TableSet binds the pipeline's source table kinds to their loaders
// and decodes raw records into typed rows at the input boundary. A nil
// loader means the table is absent from this run.
type TableSet struct {
	Measurements TableLoader
	Demographics TableLoader
	Diagnoses    TableLoader
	Genetics     TableLoader
}

// LoadMeasurements decodes the biomarker-measurement table.
func (t *TableSet) LoadMeasurements(ctx context.Context) ([]source.MeasurementRow, error) {
	if t.Measurements == nil {
		return nil, nil
	}
	records, err := t.Measurements.Load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]source.MeasurementRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, source.MeasurementRow{
			PatientKey:    record.Get("PATNO"),
			TestName:      record.Get("TESTNAME"),
			RawValue:      record.Get("TESTVALUE"),
			Units:         record.Get("UNITS"),
			RunDate:       record.Get("RUNDATE"),
			AgeAtVisit:    record.Get("AGE_AT_VISIT", "AGE"),
			ClinicalEvent: record.Get("CLINICAL_EVENT"),
			ProjectID:     record.Get("PROJECTID"),
		})
	}
	return rows, nil
}

// LoadDemographics decodes the demographics table.
func (t *TableSet) LoadDemographics(ctx context.Context) ([]source.DemographicRow, error) {
	if t.Demographics == nil {
		return nil, nil
	}
	records, err := t.Demographics.Load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]source.DemographicRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, source.DemographicRow{
			PatientKey:     record.Get("PATNO"),
			Sex:            record.Get("SEX"),
			BirthDate:      record.Get("BIRTHDT"),
			Handedness:     record.Get("HANDED"),
			HispanicLatino: record.Get("HISPLAT"),
			RaceWhite:      record.Get("RAWHITE"),
			RaceBlack:      record.Get("RABLACK"),
			RaceAsian:      record.Get("RAASIAN"),
		})
	}
	return rows, nil
}

// LoadDiagnoses decodes the cohort-assignment table.
func (t *TableSet) LoadDiagnoses(ctx context.Context) ([]source.DiagnosisRow, error) {
	if t.Diagnoses == nil {
		return nil, nil
	}
	records, err := t.Diagnoses.Load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]source.DiagnosisRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, source.DiagnosisRow{
			PatientKey: record.Get("PATNO"),
			Cohort:     record.Get("COHORT_SIMPLE", "COHORT"),
		})
	}
	return rows, nil
}

// LoadGenetics decodes the consensus genotype table.
func (t *TableSet) LoadGenetics(ctx context.Context) ([]source.GeneticRow, error) {
	if t.Genetics == nil {
		return nil, nil
	}
	records, err := t.Genetics.Load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]source.GeneticRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, source.GeneticRow{
			PatientKey:   record.Get("PATNO"),
			APOE:         record.Get("APOE"),
			LRRK2:        record.Get("LRRK2"),
			GBA:          record.Get("GBA"),
			SNCA:         record.Get("SNCA"),
			PathVarCount: record.Get("PATHVAR_COUNT"),
		})
	}
	return rows, nil
}
