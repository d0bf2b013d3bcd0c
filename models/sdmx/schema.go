package sdmx

import "time"

// Schema is the product of a resolution call: the fully materialized,
// queryable view of a structure within its context. It is constructed
// once and never mutated; a failed resolution produces no Schema.
type Schema struct {
	Context    string     `json:"context"` // dataflow, datastructure or provisionagreement
	Agency     string     `json:"agency"`
	ID         string     `json:"id"`
	Version    string     `json:"version"`
	Components Components `json:"components"`
	Artefacts  []string   `json:"artefacts"` // short URNs of every artefact consulted
	Generated  time.Time  `json:"generated"`
}
