package source

import "testing"

func TestNormalizeCohort(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "control maps to HC", raw: "Control", want: "HC"},
		{name: "HC passes through", raw: "HC", want: "HC"},
		{name: "prodromal maps to long code", raw: "Prodromal", want: "Prodromal PD"},
		{name: "PD unchanged", raw: "PD", want: "PD"},
		{name: "SWEDD unchanged", raw: "SWEDD", want: "SWEDD"},
		{name: "unknown passes through", raw: "Pilot Arm 7", want: "Pilot Arm 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCohort(tt.raw); got != tt.want {
				t.Errorf("NormalizeCohort(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCohortLabel(t *testing.T) {
	if got := CohortLabel("HC"); got != "Healthy Control" {
		t.Errorf("CohortLabel(HC) = %q", got)
	}
	if got := CohortLabel("Pilot Arm 7"); got != "Pilot Arm 7" {
		t.Errorf("unknown code must label as itself, got %q", got)
	}
}

func TestRiskGroup(t *testing.T) {
	tests := []struct {
		count int64
		want  string
	}{
		{count: 0, want: "Standard Risk"},
		{count: 1, want: "High Risk"},
		{count: 3, want: "High Risk"},
	}
	for _, tt := range tests {
		if got := RiskGroup(tt.count); got != tt.want {
			t.Errorf("RiskGroup(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}
