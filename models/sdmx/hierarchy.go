package sdmx

// HierarchicalCode is a node of a hierarchy. CodeRef points (non-owning,
// by URN) to a code in some codelist; Codes are the node's children.
type HierarchicalCode struct {
	ID      string             `json:"id"`
	Name    string             `json:"name,omitempty"`
	CodeRef string             `json:"codeRef,omitempty"`
	Codes   []HierarchicalCode `json:"codes,omitempty"`
}

// Hierarchy enumerates codes in a user-defined arrangement. Its effective
// code set is the set of nodes it lists, which may differ from any single
// codelist. Operator, when set, is the URN of a user-defined aggregation
// operator describing how children combine; it is carried through
// unchanged and never evaluated.
type Hierarchy struct {
	MaintainableArtefact
	Codes    []HierarchicalCode `json:"codes,omitempty"`
	Operator string             `json:"operator,omitempty"`
}

// ShortURN returns the compact identity of the hierarchy.
func (h *Hierarchy) ShortURN() string { return h.shortURN("Hierarchy") }

// Len counts the distinct codes of the hierarchy, children included. A
// code appearing in several branches counts once.
func (h *Hierarchy) Len() int {
	seen := map[string]struct{}{}
	collectNodes(h.Codes, seen)
	return len(seen)
}

func collectNodes(codes []HierarchicalCode, seen map[string]struct{}) {
	for i := range codes {
		key := codes[i].CodeRef
		if key == "" {
			key = codes[i].ID
		}
		seen[key] = struct{}{}
		collectNodes(codes[i].Codes, seen)
	}
}

func (h *Hierarchy) isCodeSet() {}

// HierarchyAssociation binds a hierarchy to a component within a given
// context, replacing the component's plain codelist during resolution.
type HierarchyAssociation struct {
	MaintainableArtefact
	HierarchyRef string `json:"hierarchyRef"`
	ComponentRef string `json:"componentRef"`
	ContextRef   string `json:"contextRef,omitempty"`
	Operator     string `json:"operator,omitempty"`
}

// ShortURN returns the compact identity of the association.
func (h *HierarchyAssociation) ShortURN() string { return h.shortURN("HierarchyAssociation") }
