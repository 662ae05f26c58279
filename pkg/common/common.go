package common

// NodeKind identifies one of the entity types in the exported graph.
type NodeKind string

const (
	NodeKindPatient        NodeKind = "Patient"
	NodeKindBiomarker      NodeKind = "Biomarker"
	NodeKindCohort         NodeKind = "Cohort"
	NodeKindGeneticVariant NodeKind = "GeneticVariant"
)

// RelKind identifies one of the typed, directed relationship kinds.
type RelKind string

const (
	RelKindMeasured    RelKind = "MEASURED"
	RelKindHasCohort   RelKind = "HAS_COHORT"
	RelKindHasGenotype RelKind = "HAS_GENOTYPE"
)

// PropType is the value type of an attribute or property column,
// as declared in bulk-import CSV headers.
type PropType string

const (
	PropTypeString  PropType = "string"
	PropTypeInt     PropType = "int"
	PropTypeFloat   PropType = "float"
	PropTypeBoolean PropType = "boolean"
)

// Column declares one attribute or property column of a node or
// relationship kind. String columns carry no header suffix; all other
// types are suffixed so bulk importers can type them.
type Column struct {
	Name string
	Type PropType
}

// Node represents a graph entity record. Attrs holds only the keys
// declared in the kind's schema; absent attributes are missing keys.
// Attribute values are string, int64, float64, bool or nil.
type Node struct {
	Kind  NodeKind
	ID    string
	Attrs map[string]any
}

// Relationship represents a directed, typed edge between two nodes,
// referenced by their registry-assigned IDs. Props follows the same
// value conventions as Node.Attrs.
type Relationship struct {
	Kind    RelKind
	StartID string
	EndID   string
	Props   map[string]any
}

// Endpoints describes the start and end node kinds of a relationship kind.
type Endpoints struct {
	Start NodeKind
	End   NodeKind
}

// NodeKinds lists all node kinds in a fixed export order.
var NodeKinds = []NodeKind{
	NodeKindPatient,
	NodeKindBiomarker,
	NodeKindCohort,
	NodeKindGeneticVariant,
}

// RelKinds lists all relationship kinds in a fixed export order.
var RelKinds = []RelKind{
	RelKindMeasured,
	RelKindHasCohort,
	RelKindHasGenotype,
}

// NodeIDFields maps each node kind to the name of its identifier
// column in the bulk-import header.
var NodeIDFields = map[NodeKind]string{
	NodeKindPatient:        "patientId",
	NodeKindBiomarker:      "biomarkerId",
	NodeKindCohort:         "cohortId",
	NodeKindGeneticVariant: "variantId",
}

// NodeSchemas declares the ordered attribute columns per node kind.
var NodeSchemas = map[NodeKind][]Column{
	NodeKindPatient: {
		{Name: "sex", Type: PropTypeInt},
		{Name: "sexLabel", Type: PropTypeString},
		{Name: "birthDate", Type: PropTypeString},
		{Name: "handedness", Type: PropTypeInt},
		{Name: "hispanicLatino", Type: PropTypeInt},
		{Name: "raceWhite", Type: PropTypeInt},
		{Name: "raceBlack", Type: PropTypeInt},
		{Name: "raceAsian", Type: PropTypeInt},
	},
	NodeKindBiomarker: {
		{Name: "units", Type: PropTypeString},
		{Name: "clinicalEvent", Type: PropTypeString},
	},
	NodeKindCohort: {
		{Name: "fullName", Type: PropTypeString},
	},
	NodeKindGeneticVariant: {
		{Name: "apoe", Type: PropTypeString},
		{Name: "lrrk2", Type: PropTypeString},
		{Name: "gba", Type: PropTypeString},
		{Name: "snca", Type: PropTypeString},
		{Name: "pathVarCount", Type: PropTypeInt},
		{Name: "riskGroup", Type: PropTypeString},
	},
}

// RelSchemas declares the ordered property columns per relationship kind.
var RelSchemas = map[RelKind][]Column{
	RelKindMeasured: {
		{Name: "value", Type: PropTypeFloat},
		{Name: "age", Type: PropTypeFloat},
		{Name: "date", Type: PropTypeString},
		{Name: "clinicalEvent", Type: PropTypeString},
		{Name: "projectId", Type: PropTypeInt},
	},
	RelKindHasCohort:   {},
	RelKindHasGenotype: {},
}

// RelEndpoints declares the expected endpoint node kinds per
// relationship kind. Every edge's endpoints must resolve to nodes of
// these kinds.
var RelEndpoints = map[RelKind]Endpoints{
	RelKindMeasured:    {Start: NodeKindPatient, End: NodeKindBiomarker},
	RelKindHasCohort:   {Start: NodeKindPatient, End: NodeKindCohort},
	RelKindHasGenotype: {Start: NodeKindPatient, End: NodeKindGeneticVariant},
}
