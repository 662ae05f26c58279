package graph

import (
	"fmt"
	"strings"
	"time"

	"ppmigraph/pkg/common"
	"ppmigraph/pkg/logger"
	"ppmigraph/pkg/source"
)

// Stats counts row-level data issues encountered during extraction.
// These are recovered locally and surfaced in the run summary and the
// generated schema document; they never abort the run.
type Stats struct {
	SkippedRows       int
	UnparseableValues int
	CohortConflicts   int
	DuplicateGenotype int
}

// Extractor turns typed source rows into registered nodes and typed
// edges. Both endpoints of every edge are registered before the edge
// is recorded, which is what makes referential integrity hold by
// construction rather than through a separate linking pass.
type Extractor struct {
	registry *Registry
	stats    Stats

	// Birth dates from demographics, keyed by patient key, for deriving
	// age at measurement when the measurements table carries no age.
	birthByPat map[string]time.Time

	measured []*common.Relationship

	// Cohort assignment is at most one edge per patient; conflicting
	// rows resolve last-write-wins in row order.
	cohortOrder  []string
	cohortByPat  map[string]string
	genotypeSeen map[string]map[string]bool
	genotype     []*common.Relationship
}

// NewExtractor creates an extractor that registers entities in the
// given registry.
func NewExtractor(registry *Registry) *Extractor {
	return &Extractor{
		registry:     registry,
		birthByPat:   make(map[string]time.Time),
		cohortByPat:  make(map[string]string),
		genotypeSeen: make(map[string]map[string]bool),
	}
}

// AddDemographics registers Patient nodes with their demographic
// attributes. Demographic rows imply no edges; they exist so patients
// carry attributes even when first seen here. Rows without a patient
// key are skipped and counted.
func (x *Extractor) AddDemographics(rows []source.DemographicRow) error {
	for _, row := range rows {
		patientKey := strings.TrimSpace(row.PatientKey)
		if patientKey == "" {
			x.stats.SkippedRows++
			continue
		}

		attrs := map[string]any{}
		if label := sexLabel(row.Sex); label != "" {
			attrs["sexLabel"] = label
		}
		if birth, ok := source.ParseDate(row.BirthDate); ok {
			attrs["birthDate"] = birth.Format("2006-01-02")
			x.birthByPat[patientKey] = birth
		}
		putInt(attrs, "sex", row.Sex)
		putInt(attrs, "handedness", row.Handedness)
		putInt(attrs, "hispanicLatino", row.HispanicLatino)
		putInt(attrs, "raceWhite", row.RaceWhite)
		putInt(attrs, "raceBlack", row.RaceBlack)
		putInt(attrs, "raceAsian", row.RaceAsian)

		if _, err := x.registry.Register(common.NodeKindPatient, patientKey, attrs); err != nil {
			return fmt.Errorf("failed to register patient %q: %w", patientKey, err)
		}
	}
	return nil
}

// AddMeasurements emits one MEASURED edge per row. Every measurement
// instance is preserved; aggregation across visits is a downstream
// concern. Rows missing the patient key or test name are skipped and
// counted; an unparseable numeric value degrades to an absent value
// property so the patient-biomarker linkage survives.
func (x *Extractor) AddMeasurements(rows []source.MeasurementRow) error {
	for _, row := range rows {
		patientKey := strings.TrimSpace(row.PatientKey)
		testName := strings.TrimSpace(row.TestName)
		if patientKey == "" || testName == "" {
			x.stats.SkippedRows++
			continue
		}

		startID, err := x.registry.Register(common.NodeKindPatient, patientKey, nil)
		if err != nil {
			return fmt.Errorf("failed to register patient %q: %w", patientKey, err)
		}
		endID, err := x.registry.Register(common.NodeKindBiomarker, testName, map[string]any{
			"units":         strings.TrimSpace(row.Units),
			"clinicalEvent": strings.TrimSpace(row.ClinicalEvent),
		})
		if err != nil {
			return fmt.Errorf("failed to register biomarker %q: %w", testName, err)
		}

		props := map[string]any{
			"date":          source.NormalizeDate(row.RunDate),
			"clinicalEvent": strings.TrimSpace(row.ClinicalEvent),
		}
		if value, ok := source.ParseFloat(row.RawValue); ok {
			props["value"] = value
		} else if strings.TrimSpace(row.RawValue) != "" {
			x.stats.UnparseableValues++
		}
		if age, ok := x.ageAtMeasurement(patientKey, row); ok {
			props["age"] = age
		}
		if projectID, ok := source.ParseInt(row.ProjectID); ok {
			props["projectId"] = projectID
		}

		x.measured = append(x.measured, &common.Relationship{
			Kind:    common.RelKindMeasured,
			StartID: startID,
			EndID:   endID,
			Props:   props,
		})
	}
	return nil
}

// AddDiagnoses assigns patients to cohorts. A patient appearing with
// conflicting cohort codes keeps the last one in row order; each
// conflict is counted and surfaced as a data-quality note.
func (x *Extractor) AddDiagnoses(rows []source.DiagnosisRow) error {
	for _, row := range rows {
		patientKey := strings.TrimSpace(row.PatientKey)
		rawCohort := strings.TrimSpace(row.Cohort)
		if patientKey == "" || rawCohort == "" {
			x.stats.SkippedRows++
			continue
		}

		code := source.NormalizeCohort(rawCohort)
		startID, err := x.registry.Register(common.NodeKindPatient, patientKey, nil)
		if err != nil {
			return fmt.Errorf("failed to register patient %q: %w", patientKey, err)
		}
		endID, err := x.registry.Register(common.NodeKindCohort, code, map[string]any{
			"fullName": source.CohortLabel(code),
		})
		if err != nil {
			return fmt.Errorf("failed to register cohort %q: %w", code, err)
		}

		previous, assigned := x.cohortByPat[startID]
		if !assigned {
			x.cohortOrder = append(x.cohortOrder, startID)
		} else if previous != endID {
			logger.Warn("[Extract] Conflicting cohort assignment",
				"patient", startID, "previous", previous, "replacement", endID)
			x.stats.CohortConflicts++
		}
		x.cohortByPat[startID] = endID
	}
	return nil
}

// AddGenetics resolves each genotype record to a GeneticVariant node
// through its composite signature and emits at most one HAS_GENOTYPE
// edge per patient per distinct record. Two rows with identical
// genotype content map to the same variant node regardless of source
// field ordering.
func (x *Extractor) AddGenetics(rows []source.GeneticRow) error {
	for _, row := range rows {
		patientKey := strings.TrimSpace(row.PatientKey)
		if patientKey == "" {
			x.stats.SkippedRows++
			continue
		}

		fields := map[string]string{
			"APOE":    row.APOE,
			"LRRK2":   row.LRRK2,
			"GBA":     row.GBA,
			"SNCA":    row.SNCA,
			"PATHVAR": row.PathVarCount,
		}
		signature := VariantKey(fields)
		if signature == "" {
			x.stats.SkippedRows++
			continue
		}

		attrs := map[string]any{
			"apoe":  strings.TrimSpace(row.APOE),
			"lrrk2": strings.TrimSpace(row.LRRK2),
			"gba":   strings.TrimSpace(row.GBA),
			"snca":  strings.TrimSpace(row.SNCA),
		}
		if count, ok := source.ParseInt(row.PathVarCount); ok {
			attrs["pathVarCount"] = count
			attrs["riskGroup"] = source.RiskGroup(count)
		}

		startID, err := x.registry.Register(common.NodeKindPatient, patientKey, nil)
		if err != nil {
			return fmt.Errorf("failed to register patient %q: %w", patientKey, err)
		}
		endID, err := x.registry.Register(common.NodeKindGeneticVariant, signature, attrs)
		if err != nil {
			return fmt.Errorf("failed to register genetic variant %q: %w", signature, err)
		}

		if x.genotypeSeen[startID] == nil {
			x.genotypeSeen[startID] = make(map[string]bool)
		}
		if x.genotypeSeen[startID][endID] {
			x.stats.DuplicateGenotype++
			continue
		}
		x.genotypeSeen[startID][endID] = true

		x.genotype = append(x.genotype, &common.Relationship{
			Kind:    common.RelKindHasGenotype,
			StartID: startID,
			EndID:   endID,
			Props:   map[string]any{},
		})
	}
	return nil
}

// Relationships returns all extracted edges grouped by kind. Cohort
// edges materialize here, one per assigned patient in first-assignment
// order, reflecting last-write-wins resolution.
func (x *Extractor) Relationships() map[common.RelKind][]*common.Relationship {
	hasCohort := make([]*common.Relationship, 0, len(x.cohortOrder))
	for _, patientID := range x.cohortOrder {
		hasCohort = append(hasCohort, &common.Relationship{
			Kind:    common.RelKindHasCohort,
			StartID: patientID,
			EndID:   x.cohortByPat[patientID],
			Props:   map[string]any{},
		})
	}

	return map[common.RelKind][]*common.Relationship{
		common.RelKindMeasured:    x.measured,
		common.RelKindHasCohort:   hasCohort,
		common.RelKindHasGenotype: x.genotype,
	}
}

// Stats returns the row-level issue counters accumulated so far.
func (x *Extractor) Stats() Stats {
	return x.stats
}

// ageAtMeasurement resolves the patient's age for one measurement row.
// An explicit age column wins; without one, age derives from the
// demographic birth date and the measurement run date.
func (x *Extractor) ageAtMeasurement(patientKey string, row source.MeasurementRow) (float64, bool) {
	if age, ok := source.ParseFloat(row.AgeAtVisit); ok {
		return age, true
	}
	birth, ok := x.birthByPat[patientKey]
	if !ok {
		return 0, false
	}
	run, ok := source.ParseDate(row.RunDate)
	if !ok || run.Before(birth) {
		return 0, false
	}
	return run.Sub(birth).Hours() / 24 / 365.25, true
}

func sexLabel(raw string) string {
	switch strings.TrimSpace(raw) {
	case "0":
		return "Female"
	case "1":
		return "Male"
	default:
		return ""
	}
}

func putInt(attrs map[string]any, name, raw string) {
	if v, ok := source.ParseInt(raw); ok {
		attrs[name] = v
	}
}
