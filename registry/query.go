// Package registry retrieves structural artefacts from an SDMX registry
// and resolves a structure context into a materialized Schema. The
// resolver only depends on the Fetcher interface; the bundled HTTP client
// is one implementation of it.
package registry

import "context"

// Resource is the structural resource kind of a registry query.
type Resource string

const (
	ResourceDataflow             Resource = "dataflow"
	ResourceDataStructure        Resource = "datastructure"
	ResourceProvisionAgreement   Resource = "provisionagreement"
	ResourceContentConstraint    Resource = "contentconstraint"
	ResourceHierarchyAssociation Resource = "hierarchyassociation"
	ResourceCodelist             Resource = "codelist"
	ResourceValueList            Resource = "valuelist"
	ResourceConceptScheme        Resource = "conceptscheme"
	ResourceHierarchy            Resource = "hierarchy"
	ResourceAgencyScheme         Resource = "agencyscheme"
)

// Query describes one structural retrieval: a resource kind, the target
// identity and the resolution-affecting flags.
type Query struct {
	Resource   Resource
	Agency     string
	ID         string
	Version    string
	References string // e.g. "descendants", "children"
	Detail     string // e.g. "full", "referencepartial"
}

// Fetcher retrieves the raw payload for a query. Implementations own
// connection pooling, retries and authentication; the resolver treats
// them as pure, fallible, possibly slow dependencies.
type Fetcher interface {
	Fetch(ctx context.Context, query Query) ([]byte, error)
}
