package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ppmigraph/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NodeFileNames maps each node kind to its bulk-import file name.
var NodeFileNames = map[common.NodeKind]string{
	common.NodeKindPatient:        "patients_nodes.csv",
	common.NodeKindBiomarker:      "biomarkers_nodes.csv",
	common.NodeKindCohort:         "cohorts_nodes.csv",
	common.NodeKindGeneticVariant: "genetic_variants_nodes.csv",
}

// RelFileNames maps each relationship kind to its bulk-import file name.
var RelFileNames = map[common.RelKind]string{
	common.RelKindMeasured:    "measured_rels.csv",
	common.RelKindHasCohort:   "has_cohort_rels.csv",
	common.RelKindHasGenotype: "has_genotype_rels.csv",
}

// SchemaDocFileName is the generated schema document's file name.
const SchemaDocFileName = "GRAPH_SCHEMA.md"

// Writer serializes node and relationship sets into the CSV layout
// consumed by graph-database bulk importers. All files go into a
// staging directory next to the target; Commit moves them into place
// and Discard removes them, so the target directory only ever holds a
// complete, consistent file set.
type Writer struct {
	targetDir  string
	stagingDir string
	files      []string
	committed  bool
}

// NewWriter creates a writer staging into a sibling of targetDir.
func NewWriter(targetDir string) (*Writer, error) {
	suffix, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate staging suffix: %w", err)
	}
	stagingDir := fmt.Sprintf("%s.staging-%s", filepath.Clean(targetDir), suffix)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Writer{
		targetDir:  filepath.Clean(targetDir),
		stagingDir: stagingDir,
	}, nil
}

// WriteNodes serializes one node kind into its staged CSV file.
// Header layout: <idField>:ID, :LABEL, then one column per schema
// attribute with a type suffix for non-string columns.
func (w *Writer) WriteNodes(kind common.NodeKind, nodes []*common.Node) error {
	columns := common.NodeSchemas[kind]
	header := make([]string, 0, len(columns)+2)
	header = append(header, common.NodeIDFields[kind]+":ID", ":LABEL")
	for _, column := range columns {
		header = append(header, headerField(column))
	}

	records := make([][]string, 0, len(nodes))
	for _, node := range nodes {
		record := make([]string, 0, len(header))
		record = append(record, node.ID, string(kind))
		for _, column := range columns {
			field, err := formatValue(node.Attrs[column.Name], column.Type)
			if err != nil {
				return fmt.Errorf("node %s/%s attribute %s: %w", kind, node.ID, column.Name, err)
			}
			record = append(record, field)
		}
		records = append(records, record)
	}

	return w.writeFile(NodeFileNames[kind], header, records)
}

// WriteRelationships serializes one relationship kind into its staged
// CSV file. Header layout: :START_ID, :TYPE, :END_ID, then one column
// per schema property with a type suffix for non-string columns.
func (w *Writer) WriteRelationships(kind common.RelKind, relationships []*common.Relationship) error {
	columns := common.RelSchemas[kind]
	header := make([]string, 0, len(columns)+3)
	header = append(header, ":START_ID", ":TYPE", ":END_ID")
	for _, column := range columns {
		header = append(header, headerField(column))
	}

	records := make([][]string, 0, len(relationships))
	for _, rel := range relationships {
		record := make([]string, 0, len(header))
		record = append(record, rel.StartID, string(kind), rel.EndID)
		for _, column := range columns {
			field, err := formatValue(rel.Props[column.Name], column.Type)
			if err != nil {
				return fmt.Errorf("%s edge %s->%s property %s: %w", kind, rel.StartID, rel.EndID, column.Name, err)
			}
			record = append(record, field)
		}
		records = append(records, record)
	}

	return w.writeFile(RelFileNames[kind], header, records)
}

// WriteSchemaDoc stages the generated schema document.
func (w *Writer) WriteSchemaDoc(content string) error {
	path := filepath.Join(w.stagingDir, SchemaDocFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write schema document: %w", err)
	}
	w.files = append(w.files, SchemaDocFileName)
	return nil
}

// Commit moves the staged file set into the target directory and
// removes the staging directory. A missing target is claimed with a
// single directory rename; an existing target gets the files moved in
// one at a time, rolled back on failure, so the target never holds a
// partial set. After Commit the writer is spent.
func (w *Writer) Commit() error {
	if w.committed {
		return fmt.Errorf("writer already committed")
	}

	if _, err := os.Stat(w.targetDir); os.IsNotExist(err) {
		if err := os.Rename(w.stagingDir, w.targetDir); err != nil {
			return fmt.Errorf("failed to move staging into target directory: %w", err)
		}
		w.committed = true
		return nil
	}

	var moved []string
	for _, name := range w.files {
		src := filepath.Join(w.stagingDir, name)
		dst := filepath.Join(w.targetDir, name)
		if err := os.Rename(src, dst); err != nil {
			for _, done := range moved {
				_ = os.Rename(filepath.Join(w.targetDir, done), filepath.Join(w.stagingDir, done))
			}
			return fmt.Errorf("failed to move %s into target directory: %w", name, err)
		}
		moved = append(moved, name)
	}
	w.committed = true
	return os.RemoveAll(w.stagingDir)
}

// Discard removes the staging directory and everything in it. Safe to
// call after Commit, where it is a no-op.
func (w *Writer) Discard() {
	if w.committed {
		return
	}
	_ = os.RemoveAll(w.stagingDir)
}

// Files returns the staged (or committed) file names in write order.
func (w *Writer) Files() []string {
	return w.files
}

func (w *Writer) writeFile(name string, header []string, records [][]string) error {
	f, err := os.Create(filepath.Join(w.stagingDir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, record := range records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s record: %w", name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	w.files = append(w.files, name)
	return nil
}

func headerField(column common.Column) string {
	if column.Type == common.PropTypeString {
		return column.Name
	}
	return column.Name + ":" + string(column.Type)
}

// formatValue renders a typed value in canonical form: plain decimal
// floats with a '.' separator and no exponent, base-10 integers, and
// true/false booleans. Nil and missing values become empty fields.
func formatValue(value any, propType common.PropType) (string, error) {
	if value == nil {
		return "", nil
	}
	switch propType {
	case common.PropTypeString:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("expected string, got %T", value)
		}
		return s, nil
	case common.PropTypeInt:
		i, ok := value.(int64)
		if !ok {
			return "", fmt.Errorf("expected int64, got %T", value)
		}
		return strconv.FormatInt(i, 10), nil
	case common.PropTypeFloat:
		f, ok := value.(float64)
		if !ok {
			return "", fmt.Errorf("expected float64, got %T", value)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case common.PropTypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("expected bool, got %T", value)
		}
		return strconv.FormatBool(b), nil
	default:
		return "", fmt.Errorf("unknown property type %q", propType)
	}
}
