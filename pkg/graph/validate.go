package graph

import (
	"fmt"

	"ppmigraph/pkg/common"
)

// Violation describes one referential-integrity defect found in the
// extracted model. Any violation is fatal for the run: a partially
// consistent bulk-import file set is worse than an explicit failure.
type Violation struct {
	Kind    string
	Message string
}

const (
	// ViolationDuplicateNodeID marks a node set containing the same ID twice.
	ViolationDuplicateNodeID = "duplicate_node_id"
	// ViolationDanglingEndpoint marks an edge referencing a missing node.
	ViolationDanglingEndpoint = "dangling_endpoint"
)

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Message)
}

// Validate re-checks the extracted model before anything is written:
// node IDs must be unique within each kind, and every relationship
// endpoint must resolve to an existing node of the expected kind. It
// is a pure function; an empty result means the model is exportable.
func Validate(
	nodeSets map[common.NodeKind][]*common.Node,
	relationshipSets map[common.RelKind][]*common.Relationship,
) []Violation {
	var violations []Violation

	idsByKind := make(map[common.NodeKind]map[string]bool, len(nodeSets))
	for kind, nodes := range nodeSets {
		ids := make(map[string]bool, len(nodes))
		for _, node := range nodes {
			if ids[node.ID] {
				violations = append(violations, Violation{
					Kind:    ViolationDuplicateNodeID,
					Message: fmt.Sprintf("node kind %s contains id %q more than once", kind, node.ID),
				})
				continue
			}
			ids[node.ID] = true
		}
		idsByKind[kind] = ids
	}

	for kind, relationships := range relationshipSets {
		endpoints, ok := common.RelEndpoints[kind]
		if !ok {
			violations = append(violations, Violation{
				Kind:    ViolationDanglingEndpoint,
				Message: fmt.Sprintf("relationship kind %s has no declared endpoint kinds", kind),
			})
			continue
		}
		for _, rel := range relationships {
			if !idsByKind[endpoints.Start][rel.StartID] {
				violations = append(violations, Violation{
					Kind: ViolationDanglingEndpoint,
					Message: fmt.Sprintf("%s edge references missing %s node %q",
						kind, endpoints.Start, rel.StartID),
				})
			}
			if !idsByKind[endpoints.End][rel.EndID] {
				violations = append(violations, Violation{
					Kind: ViolationDanglingEndpoint,
					Message: fmt.Sprintf("%s edge references missing %s node %q",
						kind, endpoints.End, rel.EndID),
				})
			}
		}
	}

	return violations
}
