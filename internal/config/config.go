package config

import (
	"fmt"

	"ppmigraph/pkg/graph"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
)

// Config holds the environment-driven settings for one export run.
// Table paths are resolved relative to DataDir; BaseURL, when set,
// enables fetching tables from a release archive if the local file is
// missing.
type Config struct {
	DataDir   string `env:"PPMI_DATA_DIR" envDefault:"." validate:"required"`
	OutputDir string `env:"PPMI_OUTPUT_DIR" envDefault:"graph_data" validate:"required"`
	BaseURL   string `env:"PPMI_BASE_URL" validate:"omitempty,url"`

	MeasurementsFile string `env:"PPMI_MEASUREMENTS_FILE" envDefault:"Current_Biospecimen_Analysis_Results.csv"`
	DemographicsFile string `env:"PPMI_DEMOGRAPHICS_FILE" envDefault:"Demographics.csv"`
	DiagnosesFile    string `env:"PPMI_DIAGNOSES_FILE" envDefault:"Clinical_Diagnosis.csv"`
	GeneticsFile     string `env:"PPMI_GENETICS_FILE" envDefault:"Genetic_Consensus_APOE_Pathogenic_Variants.csv"`

	AttributePolicy string `env:"PPMI_ATTRIBUTE_POLICY" envDefault:"first-seen" validate:"oneof=first-seen merge-missing"`
	Debug           bool   `env:"DEBUG" envDefault:"false"`
}

// Load reads the configuration from the environment, honoring a .env
// file when present, and validates it before any I/O happens.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Policy returns the configured registry attribute policy.
func (c *Config) Policy() graph.AttributePolicy {
	return graph.AttributePolicy(c.AttributePolicy)
}
