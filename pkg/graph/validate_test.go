package graph

import (
	"testing"

	"ppmigraph/pkg/common"
)

func TestValidate_CleanModel(t *testing.T) {
	nodeSets := map[common.NodeKind][]*common.Node{
		common.NodeKindPatient: {
			{Kind: common.NodeKindPatient, ID: "3000"},
		},
		common.NodeKindBiomarker: {
			{Kind: common.NodeKindBiomarker, ID: "ABeta 1-42"},
		},
	}
	relationshipSets := map[common.RelKind][]*common.Relationship{
		common.RelKindMeasured: {
			{Kind: common.RelKindMeasured, StartID: "3000", EndID: "ABeta 1-42"},
		},
	}

	if violations := Validate(nodeSets, relationshipSets); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestValidate_DuplicateNodeID(t *testing.T) {
	nodeSets := map[common.NodeKind][]*common.Node{
		common.NodeKindPatient: {
			{Kind: common.NodeKindPatient, ID: "3000"},
			{Kind: common.NodeKindPatient, ID: "3000"},
		},
	}

	violations := Validate(nodeSets, nil)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].Kind != ViolationDuplicateNodeID {
		t.Errorf("violation kind = %q, want %q", violations[0].Kind, ViolationDuplicateNodeID)
	}
}

func TestValidate_DanglingEndpoints(t *testing.T) {
	tests := []struct {
		name string
		rel  *common.Relationship
		want int
	}{
		{
			name: "missing start node",
			rel:  &common.Relationship{Kind: common.RelKindMeasured, StartID: "9999", EndID: "ABeta 1-42"},
			want: 1,
		},
		{
			name: "missing end node",
			rel:  &common.Relationship{Kind: common.RelKindMeasured, StartID: "3000", EndID: "Unknown Test"},
			want: 1,
		},
		{
			name: "both endpoints missing",
			rel:  &common.Relationship{Kind: common.RelKindMeasured, StartID: "9999", EndID: "Unknown Test"},
			want: 2,
		},
	}

	nodeSets := map[common.NodeKind][]*common.Node{
		common.NodeKindPatient: {
			{Kind: common.NodeKindPatient, ID: "3000"},
		},
		common.NodeKindBiomarker: {
			{Kind: common.NodeKindBiomarker, ID: "ABeta 1-42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := Validate(nodeSets, map[common.RelKind][]*common.Relationship{
				common.RelKindMeasured: {tt.rel},
			})
			if len(violations) != tt.want {
				t.Fatalf("expected %d violations, got %d: %v", tt.want, len(violations), violations)
			}
			for _, v := range violations {
				if v.Kind != ViolationDanglingEndpoint {
					t.Errorf("violation kind = %q, want %q", v.Kind, ViolationDanglingEndpoint)
				}
			}
		})
	}
}

func TestValidate_EndpointKindMatters(t *testing.T) {
	// A HAS_COHORT edge must point at a Cohort node; a Biomarker node
	// with the same ID does not satisfy it.
	nodeSets := map[common.NodeKind][]*common.Node{
		common.NodeKindPatient: {
			{Kind: common.NodeKindPatient, ID: "3000"},
		},
		common.NodeKindBiomarker: {
			{Kind: common.NodeKindBiomarker, ID: "PD"},
		},
	}
	relationshipSets := map[common.RelKind][]*common.Relationship{
		common.RelKindHasCohort: {
			{Kind: common.RelKindHasCohort, StartID: "3000", EndID: "PD"},
		},
	}

	violations := Validate(nodeSets, relationshipSets)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
	if violations[0].Kind != ViolationDanglingEndpoint {
		t.Errorf("violation kind = %q, want %q", violations[0].Kind, ViolationDanglingEndpoint)
	}
}
