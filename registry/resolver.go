package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/openstats/sdmx/models/sdmx"
	"github.com/openstats/sdmx/sdmxerrors"
	"github.com/openstats/sdmx/urn"
	"github.com/openstats/sdmx/xmlreader"
)

// Schema contexts accepted by the resolver.
const (
	ContextDataflow           = "dataflow"
	ContextDataStructure      = "datastructure"
	ContextProvisionAgreement = "provisionagreement"
)

// ResolverConfig holds the resolver settings.
type ResolverConfig struct {
	Fetcher Fetcher
	// Sequential executes artefact fetches one at a time instead of in
	// parallel. The resulting Schema is identical either way.
	Sequential bool
}

// Resolver materializes a Schema from the artefact graph behind a
// structure context. Each call owns its own working set; nothing is
// cached across calls.
type Resolver struct {
	fetcher    Fetcher
	reader     *xmlreader.Reader
	sequential bool
	log        zerolog.Logger
}

// NewResolver builds a Resolver on top of the given fetch collaborator.
func NewResolver(config ResolverConfig, log zerolog.Logger) (*Resolver, error) {
	if config.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	return &Resolver{
		fetcher:    config.Fetcher,
		reader:     xmlreader.NewReader(log),
		sequential: config.Sequential,
		log:        log,
	}, nil
}

// fetchTask is one artefact retrieval. Optional tasks tolerate a 404;
// everything else aborts the resolution.
type fetchTask struct {
	query    Query
	optional bool
}

// Schema resolves the given context into a Schema. Any fetch failure or
// unresolvable reference aborts the whole resolution; no partial Schema
// is ever returned.
func (r *Resolver) Schema(ctx context.Context, schemaContext, agency, id, version string) (*sdmx.Schema, error) {
	var rootResource Resource
	switch schemaContext {
	case ContextDataflow:
		rootResource = ResourceDataflow
	case ContextDataStructure:
		rootResource = ResourceDataStructure
	case ContextProvisionAgreement:
		rootResource = ResourceProvisionAgreement
	default:
		return nil, sdmxerrors.Resolutionf(schemaContext, "unknown schema context")
	}
	if version == "" {
		version = sdmx.DefaultVersion
	}

	r.log.Debug().
		Str("context", schemaContext).
		Str("agency", agency).
		Str("id", id).
		Str("version", version).
		Msg("Resolving schema")

	content := &sdmx.Message{}

	// Step 1: root artefact and, transitively, its data structure
	// definition. The chain is sequential by nature; fan-out starts
	// once the DSD is known.
	root := fetchTask{query: Query{
		Resource:   rootResource,
		Agency:     agency,
		ID:         id,
		Version:    version,
		References: "descendants",
	}}
	msg, err := r.fetchMessage(ctx, root)
	if err != nil {
		return nil, err
	}
	content.Merge(msg)

	dsd, err := r.locateStructure(ctx, schemaContext, agency, id, version, content)
	if err != nil {
		return nil, err
	}

	// Steps 2-5: independent fetches for concept schemes, coded
	// representations, the content constraint and the hierarchy
	// associations of the context.
	tasks := r.componentTasks(dsd, content)
	tasks = append(tasks,
		fetchTask{query: Query{Resource: ResourceContentConstraint, Agency: agency, ID: id, Version: version}, optional: true},
		fetchTask{query: Query{Resource: ResourceHierarchyAssociation, Agency: agency, ID: id, Version: version, References: "children"}, optional: true},
	)
	fetched, err := r.obtain(ctx, tasks)
	if err != nil {
		return nil, err
	}
	content.Merge(fetched)

	// Step 6: assembly in DSD declaration order, independent of fetch
	// completion order.
	components, err := assembleComponents(dsd, content)
	if err != nil {
		return nil, err
	}
	if err := components.Validate(); err != nil {
		return nil, sdmxerrors.Resolutionf(dsd.ShortURN(), "invalid component set: %v", err)
	}

	schema := &sdmx.Schema{
		Context:    schemaContext,
		Agency:     agency,
		ID:         id,
		Version:    version,
		Components: components,
		Artefacts:  consultedArtefacts(content),
		Generated:  time.Now().UTC(),
	}
	r.log.Debug().
		Int("components", len(schema.Components)).
		Int("artefacts", len(schema.Artefacts)).
		Msg("Resolved schema")
	return schema, nil
}

// locateStructure walks the context chain (provision agreement →
// dataflow → data structure) inside the already fetched content, issuing
// follow-up fetches for links the registry did not inline.
func (r *Resolver) locateStructure(ctx context.Context, schemaContext, agency, id, version string, content *sdmx.Message) (*sdmx.DataStructure, error) {
	structureRef := ""
	switch schemaContext {
	case ContextDataStructure:
		structureRef = urn.ShortURN("DataStructure", agency, id, version)
	case ContextDataflow:
		key := urn.ShortURN("Dataflow", agency, id, version)
		df, ok := content.Dataflows[key]
		if !ok {
			return nil, sdmxerrors.Resolutionf(key, "dataflow not present in registry response")
		}
		structureRef = df.Structure
	case ContextProvisionAgreement:
		key := urn.ShortURN("ProvisionAgreement", agency, id, version)
		pa, ok := content.ProvisionAgreements[key]
		if !ok {
			return nil, sdmxerrors.Resolutionf(key, "provision agreement not present in registry response")
		}
		df, ok := content.Dataflows[pa.Dataflow]
		if !ok {
			fetched, err := r.fetchReference(ctx, pa.Dataflow, ResourceDataflow)
			if err != nil {
				return nil, err
			}
			content.Merge(fetched)
			if df, ok = content.Dataflows[pa.Dataflow]; !ok {
				return nil, sdmxerrors.Resolutionf(pa.Dataflow, "dataflow not present in registry response")
			}
		}
		structureRef = df.Structure
	}
	if structureRef == "" {
		return nil, sdmxerrors.Resolutionf(urn.ShortURN(schemaContext, agency, id, version), "no data structure reference")
	}

	if dsd, ok := content.DataStructures[structureRef]; ok {
		return dsd, nil
	}
	fetched, err := r.fetchReference(ctx, structureRef, ResourceDataStructure)
	if err != nil {
		return nil, err
	}
	content.Merge(fetched)
	if dsd, ok := content.DataStructures[structureRef]; ok {
		return dsd, nil
	}
	return nil, sdmxerrors.Resolutionf(structureRef, "data structure not present in registry response")
}

// componentTasks lists the fetches still needed for the DSD components:
// one per distinct concept scheme and coded representation not already
// inlined by the registry.
func (r *Resolver) componentTasks(dsd *sdmx.DataStructure, content *sdmx.Message) []fetchTask {
	var tasks []fetchTask
	var seen []string
	add := func(refURN string, resource Resource) {
		if refURN == "" || slices.Contains(seen, refURN) {
			return
		}
		seen = append(seen, refURN)
		ref, err := urn.Parse(refURN)
		if err != nil {
			return
		}
		tasks = append(tasks, fetchTask{query: Query{
			Resource: resource,
			Agency:   ref.Agency,
			ID:       ref.ID,
			Version:  ref.Version,
		}})
	}
	for _, def := range dsd.Components {
		if ref, err := urn.Parse(def.ConceptRef); err == nil {
			schemeURN := urn.ShortURN("ConceptScheme", ref.Agency, ref.ID, ref.Version)
			if _, ok := content.Concepts[schemeURN]; !ok {
				add(schemeURN, ResourceConceptScheme)
			}
		}
		if def.Enumeration != "" {
			if _, ok := content.Codelists[def.Enumeration]; ok {
				continue
			}
			resource := ResourceCodelist
			if ref, err := urn.Parse(def.Enumeration); err == nil && ref.SdmxType == "ValueList" {
				resource = ResourceValueList
			}
			add(def.Enumeration, resource)
		}
	}
	return tasks
}

func (r *Resolver) fetchReference(ctx context.Context, refURN string, resource Resource) (*sdmx.Message, error) {
	ref, err := urn.Parse(refURN)
	if err != nil {
		return nil, sdmxerrors.Resolutionf(refURN, "invalid reference: %v", err)
	}
	return r.fetchMessage(ctx, fetchTask{query: Query{
		Resource:   resource,
		Agency:     ref.Agency,
		ID:         ref.ID,
		Version:    ref.Version,
		References: "descendants",
	}})
}

// obtain runs the tasks through the configured scheduler. Both
// schedulers feed the same merge, so the resulting content is identical.
func (r *Resolver) obtain(ctx context.Context, tasks []fetchTask) (*sdmx.Message, error) {
	if r.sequential {
		return r.obtainSequential(ctx, tasks)
	}
	return r.obtainConcurrent(ctx, tasks)
}

func (r *Resolver) obtainSequential(ctx context.Context, tasks []fetchTask) (*sdmx.Message, error) {
	merged := &sdmx.Message{}
	for _, task := range tasks {
		msg, err := r.fetchMessage(ctx, task)
		if err != nil {
			return nil, err
		}
		merged.Merge(msg)
	}
	return merged, nil
}

func (r *Resolver) obtainConcurrent(ctx context.Context, tasks []fetchTask) (*sdmx.Message, error) {
	type fetchResult struct {
		msg *sdmx.Message
		err error
	}
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan fetchResult)
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task fetchTask) {
			defer wg.Done()
			msg, err := r.fetchMessage(cctx, task)
			results <- fetchResult{msg: msg, err: err}
		}(task)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	merged := &sdmx.Message{}
	var firstErr error
	for res := range results {
		if res.err != nil {
			// First failure wins; siblings are cancelled but drained.
			// Errors arriving after that are the cancellations we
			// caused and carry no extra information.
			if firstErr == nil {
				firstErr = res.err
				cancel()
			}
			continue
		}
		merged.Merge(res.msg)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return merged, nil
}

func (r *Resolver) fetchMessage(ctx context.Context, task fetchTask) (*sdmx.Message, error) {
	key := urn.ShortURN(string(task.query.Resource), task.query.Agency, task.query.ID, task.query.Version)
	body, err := r.fetcher.Fetch(ctx, task.query)
	if err != nil {
		if task.optional && isNotFound(err) {
			return &sdmx.Message{}, nil
		}
		var regErr *sdmxerrors.RegistryError
		if errors.As(err, &regErr) {
			return nil, err
		}
		return nil, &sdmxerrors.ResolutionError{Ref: key, Msg: "fetch failed", Err: err}
	}
	result, err := r.reader.Read(body, xmlreader.Options{})
	if err != nil {
		if task.optional && isNotFound(err) {
			return &sdmx.Message{}, nil
		}
		return nil, &sdmxerrors.ResolutionError{Ref: key, Msg: "cannot parse registry response", Err: err}
	}
	if result.Structures == nil {
		return nil, sdmxerrors.Resolutionf(key, "registry response is not a structure message")
	}
	return result.Structures, nil
}

func isNotFound(err error) bool {
	var regErr *sdmxerrors.RegistryError
	return errors.As(err, &regErr) && regErr.Status == http.StatusNotFound
}

// assembleComponents materializes the DSD component definitions against
// the fetched artefacts, in declaration order.
func assembleComponents(dsd *sdmx.DataStructure, content *sdmx.Message) (sdmx.Components, error) {
	constraint := findConstraint(dsd, content)
	associations := associationsByComponent(content)

	components := make(sdmx.Components, 0, len(dsd.Components))
	for _, def := range dsd.Components {
		comp, err := assembleComponent(def, content, constraint, associations)
		if err != nil {
			return nil, err
		}
		components = append(components, comp)
	}
	return components, nil
}

func assembleComponent(def sdmx.ComponentDef, content *sdmx.Message, constraint *sdmx.ContentConstraint, associations map[string]*sdmx.HierarchyAssociation) (sdmx.Component, error) {
	concept, err := resolveConcept(def.ConceptRef, content)
	if err != nil {
		return sdmx.Component{}, err
	}

	comp := sdmx.Component{
		ID:              concept.ID,
		Name:            concept.Name,
		Description:     def.Description,
		Role:            def.Role,
		Concept:         concept,
		Required:        def.Required,
		AttachmentLevel: def.AttachmentLevel,
		ArrayDef:        def.ArrayDef,
	}

	// Local representation overrides the concept's core representation
	// entirely; otherwise the core one stands.
	enumeration := def.Enumeration
	if def.Enumeration != "" || def.DType != "" || def.Facets != nil {
		comp.DType = def.DType
		comp.Facets = def.Facets
	} else {
		comp.DType = concept.DType
		comp.Facets = concept.Facets
		enumeration = concept.EnumRef
	}
	if comp.DType == "" {
		comp.DType = sdmx.DTypeString
	}

	// A hierarchy bound through an association replaces the plain
	// codelist; without the association the codelist stands.
	if assoc, ok := associations[comp.ID]; ok {
		hierarchy, ok := content.Hierarchies[assoc.HierarchyRef]
		if !ok {
			return sdmx.Component{}, sdmxerrors.Resolutionf(assoc.HierarchyRef, "hierarchy not present in registry response")
		}
		bound := *hierarchy
		bound.Operator = assoc.Operator
		comp.Codes = &bound
		return comp, nil
	}

	if enumeration != "" {
		codelist, ok := content.Codelists[enumeration]
		if !ok {
			return sdmx.Component{}, sdmxerrors.Resolutionf(enumeration, "codelist not present in registry response")
		}
		comp.Codes = narrowCodelist(codelist, constraint, comp.ID)
	}
	return comp, nil
}

func resolveConcept(conceptRef string, content *sdmx.Message) (sdmx.Concept, error) {
	ref, err := urn.Parse(conceptRef)
	if err != nil {
		return sdmx.Concept{}, sdmxerrors.Resolutionf(conceptRef, "invalid concept reference: %v", err)
	}
	schemeURN := urn.ShortURN("ConceptScheme", ref.Agency, ref.ID, ref.Version)
	scheme, ok := content.Concepts[schemeURN]
	if !ok {
		return sdmx.Concept{}, sdmxerrors.Resolutionf(schemeURN, "concept scheme not present in registry response")
	}
	concept := scheme.Item(ref.ItemID)
	if concept == nil {
		return sdmx.Concept{}, sdmxerrors.Resolutionf(conceptRef, "concept not present in scheme %s", schemeURN)
	}
	return *concept, nil
}

// narrowCodelist applies the constraint's cube region for the component:
// the effective code set is the intersection of the nominal codes and the
// allowed set, preserving codelist order. Without a region for this
// component the nominal set stands unmodified.
func narrowCodelist(codelist *sdmx.Codelist, constraint *sdmx.ContentConstraint, componentID string) *sdmx.Codelist {
	if constraint == nil {
		return codelist
	}
	allowed, ok := constraint.CubeRegion[componentID]
	if !ok {
		return codelist
	}
	narrowed := *codelist
	narrowed.Items = make([]sdmx.Code, 0, len(allowed))
	for _, code := range codelist.Items {
		if slices.Contains(allowed, code.ID) {
			narrowed.Items = append(narrowed.Items, code)
		}
	}
	narrowed.IsPartial = true
	return &narrowed
}

// findConstraint picks the content constraint attached to the resolved
// structure, or the single one the registry returned for the context.
func findConstraint(dsd *sdmx.DataStructure, content *sdmx.Message) *sdmx.ContentConstraint {
	for _, cc := range content.ContentConstraints {
		if cc.Attachment == dsd.ShortURN() {
			return cc
		}
	}
	if len(content.ContentConstraints) == 1 {
		for _, cc := range content.ContentConstraints {
			return cc
		}
	}
	return nil
}

// associationsByComponent indexes hierarchy associations by the id of
// the component they bind.
func associationsByComponent(content *sdmx.Message) map[string]*sdmx.HierarchyAssociation {
	out := map[string]*sdmx.HierarchyAssociation{}
	for _, assoc := range content.HierarchyAssociations {
		ref, err := urn.Parse(assoc.ComponentRef)
		if err != nil {
			continue
		}
		id := ref.ItemID
		if id == "" {
			id = ref.ID
		}
		out[id] = assoc
	}
	return out
}

// consultedArtefacts lists every artefact seen during resolution, sorted
// for deterministic output.
func consultedArtefacts(content *sdmx.Message) []string {
	var out []string
	for k := range content.OrganisationSchemes {
		out = append(out, k)
	}
	for k := range content.Codelists {
		out = append(out, k)
	}
	for k := range content.Concepts {
		out = append(out, k)
	}
	for k := range content.DataStructures {
		out = append(out, k)
	}
	for k := range content.Dataflows {
		out = append(out, k)
	}
	for k := range content.ProvisionAgreements {
		out = append(out, k)
	}
	for k := range content.Hierarchies {
		out = append(out, k)
	}
	for k := range content.HierarchyAssociations {
		out = append(out, k)
	}
	for k := range content.ContentConstraints {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
