package source

// TableKind identifies which source table a row came from. The
// table-to-relationship mapping of the extractor is fixed per kind.
type TableKind string

const (
	TableKindMeasurements TableKind = "measurements"
	TableKindDemographics TableKind = "demographics"
	TableKindDiagnoses    TableKind = "diagnoses"
	TableKindGenetics     TableKind = "genetics"
)

// MeasurementRow is one biomarker measurement instance. RawValue keeps
// the source text; numeric conversion happens during extraction so an
// unparseable value degrades to an absent property instead of an error.
type MeasurementRow struct {
	PatientKey    string
	TestName      string
	RawValue      string
	Units         string
	RunDate       string
	AgeAtVisit    string
	ClinicalEvent string
	ProjectID     string
}

// DemographicRow carries the per-patient demographic fields.
type DemographicRow struct {
	PatientKey     string
	Sex            string
	BirthDate      string
	Handedness     string
	HispanicLatino string
	RaceWhite      string
	RaceBlack      string
	RaceAsian      string
}

// DiagnosisRow assigns a patient to a diagnostic cohort.
type DiagnosisRow struct {
	PatientKey string
	Cohort     string
}

// GeneticRow carries one consensus genotype record for a patient.
type GeneticRow struct {
	PatientKey   string
	APOE         string
	LRRK2        string
	GBA          string
	SNCA         string
	PathVarCount string
}

// cohortCodes maps raw cohort values from the source tables onto the
// simplified diagnostic group codes used as Cohort node keys.
var cohortCodes = map[string]string{
	"Control":      "HC",
	"HC":           "HC",
	"PD":           "PD",
	"Prodromal":    "Prodromal PD",
	"Prodromal PD": "Prodromal PD",
	"SWEDD":        "SWEDD",
}

// cohortLabels maps simplified cohort codes to display names.
var cohortLabels = map[string]string{
	"HC":           "Healthy Control",
	"PD":           "Parkinson's Disease",
	"Prodromal PD": "Prodromal Parkinson's Disease",
	"SWEDD":        "Scans Without Evidence of Dopaminergic Deficit",
}

// NormalizeCohort maps a raw cohort value onto its simplified code.
// Unknown codes pass through unmapped so they still form a node rather
// than vanish from the export.
func NormalizeCohort(raw string) string {
	if code, ok := cohortCodes[raw]; ok {
		return code
	}
	return raw
}

// CohortLabel returns the display name for a simplified cohort code,
// or the code itself when no label is known.
func CohortLabel(code string) string {
	if label, ok := cohortLabels[code]; ok {
		return label
	}
	return code
}

// RiskGroup classifies a genotype record by its pathogenic variant
// count: any pathogenic variant puts the profile in the high-risk group.
func RiskGroup(pathVarCount int64) string {
	if pathVarCount > 0 {
		return "High Risk"
	}
	return "Standard Risk"
}
