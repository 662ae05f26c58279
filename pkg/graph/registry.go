package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ppmigraph/pkg/common"
)

// ErrDuplicateKeyConflict is returned when the same key is registered
// under two different node kinds. This indicates a defect in the
// extraction logic, not bad source data, and aborts the run.
var ErrDuplicateKeyConflict = errors.New("key registered under conflicting node kinds")

// AttributePolicy controls what happens to attributes when an entity
// key is registered more than once.
type AttributePolicy string

const (
	// AttributePolicyFirstSeen keeps the attributes of the first
	// registration and ignores all later ones.
	AttributePolicyFirstSeen AttributePolicy = "first-seen"
	// AttributePolicyMergeMissing keeps existing attributes and lets
	// later registrations fill only the keys still absent.
	AttributePolicyMergeMissing AttributePolicy = "merge-missing"
)

// Registry assigns stable per-run identifiers to entities and
// deduplicates repeated registrations of the same (kind, key) pair.
// Patient, Biomarker and Cohort nodes use their natural key as ID;
// GeneticVariant nodes get a synthetic VAR_<n> identifier because
// their key is a composite genotype signature.
//
// A Registry is not safe for concurrent use; the pipeline mutates it
// from a single goroutine.
type Registry struct {
	policy     AttributePolicy
	nodes      map[common.NodeKind][]*common.Node
	index      map[common.NodeKind]map[string]*common.Node
	kindByKey  map[string]common.NodeKind
	variantSeq int
}

// NewRegistry creates an empty registry with the given attribute
// policy. An empty policy defaults to first-seen-wins.
func NewRegistry(policy AttributePolicy) *Registry {
	if policy == "" {
		policy = AttributePolicyFirstSeen
	}
	r := &Registry{
		policy:    policy,
		nodes:     make(map[common.NodeKind][]*common.Node),
		index:     make(map[common.NodeKind]map[string]*common.Node),
		kindByKey: make(map[string]common.NodeKind),
	}
	for _, kind := range common.NodeKinds {
		r.index[kind] = make(map[string]*common.Node)
	}
	return r
}

// Register records an entity under (kind, key) and returns its ID.
// Repeated registrations of the same pair return the originally
// assigned ID; attribute handling follows the configured policy.
func (r *Registry) Register(kind common.NodeKind, key string, attrs map[string]any) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key for node kind %s", kind)
	}

	if existing, ok := r.index[kind][key]; ok {
		if r.policy == AttributePolicyMergeMissing {
			for name, value := range attrs {
				if _, present := existing.Attrs[name]; !present {
					existing.Attrs[name] = value
				}
			}
		}
		return existing.ID, nil
	}

	if otherKind, seen := r.kindByKey[key]; seen && otherKind != kind {
		return "", fmt.Errorf("key %q already registered as %s, now requested as %s: %w",
			key, otherKind, kind, ErrDuplicateKeyConflict)
	}

	node := &common.Node{
		Kind:  kind,
		ID:    r.assignID(kind, key),
		Attrs: make(map[string]any, len(attrs)),
	}
	for name, value := range attrs {
		node.Attrs[name] = value
	}

	r.nodes[kind] = append(r.nodes[kind], node)
	r.index[kind][key] = node
	r.kindByKey[key] = kind

	return node.ID, nil
}

// Resolve returns the ID previously assigned to (kind, key).
func (r *Registry) Resolve(kind common.NodeKind, key string) (string, bool) {
	node, ok := r.index[kind][key]
	if !ok {
		return "", false
	}
	return node.ID, true
}

// Nodes returns all nodes of a kind in first-registration order.
func (r *Registry) Nodes(kind common.NodeKind) []*common.Node {
	return r.nodes[kind]
}

// NodeSets returns every node set keyed by kind, for validation and export.
func (r *Registry) NodeSets() map[common.NodeKind][]*common.Node {
	sets := make(map[common.NodeKind][]*common.Node, len(r.nodes))
	for kind, nodes := range r.nodes {
		sets[kind] = nodes
	}
	return sets
}

// Count returns the number of distinct nodes registered under a kind.
func (r *Registry) Count(kind common.NodeKind) int {
	return len(r.nodes[kind])
}

func (r *Registry) assignID(kind common.NodeKind, key string) string {
	if kind == common.NodeKindGeneticVariant {
		r.variantSeq++
		return fmt.Sprintf("VAR_%d", r.variantSeq)
	}
	return key
}

// VariantKey builds the deterministic composite signature for a
// genotype profile: field-name=value pairs sorted by name and joined
// with a fixed separator, so identical genotype content yields the
// same key regardless of source field ordering. Empty fields are
// omitted from the signature.
func VariantKey(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+strings.TrimSpace(fields[name]))
	}
	return strings.Join(parts, "|")
}
