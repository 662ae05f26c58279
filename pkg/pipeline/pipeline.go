package pipeline

import (
	"context"
	"fmt"
	"time"

	"ppmigraph/internal/timing"
	"ppmigraph/pkg/common"
	"ppmigraph/pkg/export"
	"ppmigraph/pkg/graph"
	"ppmigraph/pkg/loader"
	"ppmigraph/pkg/logger"
	"ppmigraph/pkg/source"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// Params configures one pipeline run.
type Params struct {
	Tables          *loader.TableSet
	OutputDir       string
	AttributePolicy graph.AttributePolicy
}

// Report summarizes a completed run.
type Report struct {
	RunID          string
	OutputDir      string
	Files          []string
	NodeCounts     map[common.NodeKind]int
	RelCounts      map[common.RelKind]int
	Stats          graph.Stats
	StageDurations map[string]time.Duration
	Duration       time.Duration
}

// Pipeline drives one full export: load source tables, build the
// entity/relationship model, validate it, and write the bulk-import
// file set. All state is scoped to the run; there are no process-wide
// caches.
type Pipeline struct {
	params Params
}

type tableRows struct {
	measurements []source.MeasurementRow
	demographics []source.DemographicRow
	diagnoses    []source.DiagnosisRow
	genetics     []source.GeneticRow
}

// New creates a pipeline for the given parameters.
func New(params Params) (*Pipeline, error) {
	if params.Tables == nil {
		return nil, fmt.Errorf("pipeline requires a table set")
	}
	if params.OutputDir == "" {
		return nil, fmt.Errorf("pipeline requires an output directory")
	}
	return &Pipeline{params: params}, nil
}

// Run executes the pipeline. Row-level data issues are counted and
// reported; integrity violations abort before any file reaches the
// output directory.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run ID: %w", err)
	}

	logger.Info("[Pipeline] Starting export run", "run_id", runID, "output_dir", p.params.OutputDir)
	stages := timing.NewStages()

	stopLoad := stages.Observe("load")
	rows, err := p.loadTables(ctx)
	stopLoad()
	if err != nil {
		return nil, fmt.Errorf("failed to load source tables: %w", err)
	}
	logger.Info("[Pipeline] Source tables loaded",
		"measurements", len(rows.measurements),
		"demographics", len(rows.demographics),
		"diagnoses", len(rows.diagnoses),
		"genetics", len(rows.genetics),
	)

	registry := graph.NewRegistry(p.params.AttributePolicy)
	extractor := graph.NewExtractor(registry)

	stopExtract := stages.Observe("extract")

	// Demographics first so patient attributes are present before
	// measurement rows register bare patient keys under the
	// first-seen attribute policy.
	if err := extractor.AddDemographics(rows.demographics); err != nil {
		return nil, err
	}
	if err := extractor.AddMeasurements(rows.measurements); err != nil {
		return nil, err
	}
	if err := extractor.AddDiagnoses(rows.diagnoses); err != nil {
		return nil, err
	}
	if err := extractor.AddGenetics(rows.genetics); err != nil {
		return nil, err
	}

	nodeSets := registry.NodeSets()
	relationshipSets := extractor.Relationships()
	stopExtract()

	stopValidate := stages.Observe("validate")
	violations := graph.Validate(nodeSets, relationshipSets)
	stopValidate()
	if len(violations) > 0 {
		for _, violation := range violations {
			logger.Error("[Pipeline] Integrity violation", "kind", violation.Kind, "detail", violation.Message)
		}
		return nil, fmt.Errorf("aborting export: %d integrity violations", len(violations))
	}
	logger.Info("[Pipeline] Integrity check passed")

	report := &Report{
		RunID:      runID,
		OutputDir:  p.params.OutputDir,
		NodeCounts: make(map[common.NodeKind]int),
		RelCounts:  make(map[common.RelKind]int),
		Stats:      extractor.Stats(),
	}
	for _, kind := range common.NodeKinds {
		report.NodeCounts[kind] = len(nodeSets[kind])
	}
	for _, kind := range common.RelKinds {
		report.RelCounts[kind] = len(relationshipSets[kind])
	}

	stopExport := stages.Observe("export")
	err = p.export(registry, relationshipSets, report)
	stopExport()
	if err != nil {
		return nil, err
	}

	report.StageDurations = stages.Durations()
	report.Duration = time.Since(start)
	logger.Debug("[Pipeline] Stage durations", stages.Keyvals()...)
	logger.Info("[Pipeline] Export completed",
		"run_id", runID,
		"patients", report.NodeCounts[common.NodeKindPatient],
		"biomarkers", report.NodeCounts[common.NodeKindBiomarker],
		"cohorts", report.NodeCounts[common.NodeKindCohort],
		"genetic_variants", report.NodeCounts[common.NodeKindGeneticVariant],
		"measured", report.RelCounts[common.RelKindMeasured],
		"has_cohort", report.RelCounts[common.RelKindHasCohort],
		"has_genotype", report.RelCounts[common.RelKindHasGenotype],
		"duration", report.Duration.Round(time.Millisecond),
	)
	return report, nil
}

// loadTables fetches the four source tables. Tables are independent
// inputs, so they load concurrently; all model mutation stays on the
// extraction goroutine.
func (p *Pipeline) loadTables(ctx context.Context) (*tableRows, error) {
	rows := &tableRows{}
	eg, gCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		loaded, err := p.params.Tables.LoadMeasurements(gCtx)
		if err != nil {
			return fmt.Errorf("measurements: %w", err)
		}
		rows.measurements = loaded
		return nil
	})
	eg.Go(func() error {
		loaded, err := p.params.Tables.LoadDemographics(gCtx)
		if err != nil {
			return fmt.Errorf("demographics: %w", err)
		}
		rows.demographics = loaded
		return nil
	})
	eg.Go(func() error {
		loaded, err := p.params.Tables.LoadDiagnoses(gCtx)
		if err != nil {
			return fmt.Errorf("diagnoses: %w", err)
		}
		rows.diagnoses = loaded
		return nil
	})
	eg.Go(func() error {
		loaded, err := p.params.Tables.LoadGenetics(gCtx)
		if err != nil {
			return fmt.Errorf("genetics: %w", err)
		}
		rows.genetics = loaded
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (p *Pipeline) export(
	registry *graph.Registry,
	relationshipSets map[common.RelKind][]*common.Relationship,
	report *Report,
) error {
	writer, err := export.NewWriter(p.params.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to create export writer: %w", err)
	}
	defer writer.Discard()

	for _, kind := range common.NodeKinds {
		if err := writer.WriteNodes(kind, registry.Nodes(kind)); err != nil {
			return fmt.Errorf("failed to export %s nodes: %w", kind, err)
		}
	}
	for _, kind := range common.RelKinds {
		if err := writer.WriteRelationships(kind, relationshipSets[kind]); err != nil {
			return fmt.Errorf("failed to export %s relationships: %w", kind, err)
		}
	}

	doc, err := export.RenderSchemaDoc(export.SchemaDocParams{
		RunID:       report.RunID,
		GeneratedAt: time.Now(),
		NodeCounts:  report.NodeCounts,
		RelCounts:   report.RelCounts,
		Stats:       report.Stats,
	})
	if err != nil {
		return err
	}
	if err := writer.WriteSchemaDoc(doc); err != nil {
		return err
	}

	if err := writer.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	report.Files = writer.Files()
	return nil
}
