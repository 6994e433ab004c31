// Package facts provides the core data model for universe knowledge.
// A fact graph captures what a story established: the entities it
// mentions, the events it places on the timeline, and the core truths
// the universe must never contradict.
//
// Graphs are plain serializable values. They are produced by the
// extractor, loaded from a canon repository, and consumed by the
// planner, changeset builder, and validator without any of those
// components owning the types.
//
// Example usage:
//
//	graph := &facts.Graph{
//	    Entities: []facts.Entity{
//	        {ID: "rytir_jan", Type: facts.EntityTypePerson, Labels: []string{"Rytíř Jan"}},
//	    },
//	    Events: []facts.Event{
//	        {ID: "bitva_u_brodu", Title: "Bitva u brodu", Date: "1342"},
//	    },
//	}
//	graph.Normalize()
//	if entity, ok := graph.Entity("rytir_jan"); ok {
//	    fmt.Println(entity.Label())
//	}
package facts

// Graph captures everything a single story established, or everything a
// canon repository currently records.
type Graph struct {
	Entities   []Entity `json:"entities" yaml:"entities"`                           // Canonical subjects keyed by slug id
	Events     []Event  `json:"events" yaml:"events"`                               // Timeline occurrences
	CoreTruths []string `json:"core_truths,omitempty" yaml:"core_truths,omitempty"` // Legend statements that must hold
}

// IsEmpty reports whether the graph carries no entities, events, or truths.
func (g *Graph) IsEmpty() bool {
	if g == nil {
		return true
	}
	return len(g.Entities) == 0 && len(g.Events) == 0 && len(g.CoreTruths) == 0
}

// Entity returns the entity with the given id and whether it exists.
func (g *Graph) Entity(id string) (Entity, bool) {
	if g == nil {
		return Entity{}, false
	}
	for _, entity := range g.Entities {
		if entity.ID == id {
			return entity, true
		}
	}
	return Entity{}, false
}

// EntityIndex returns a map of entities keyed by id. With duplicate ids
// the first occurrence wins, matching Normalize.
func (g *Graph) EntityIndex() map[string]Entity {
	if g == nil {
		return map[string]Entity{}
	}
	index := make(map[string]Entity, len(g.Entities))
	for _, entity := range g.Entities {
		if _, ok := index[entity.ID]; !ok {
			index[entity.ID] = entity
		}
	}
	return index
}

// EntityGraph projects the graph down to the entity-only view consumed
// by the reconciliation planner.
func (g *Graph) EntityGraph() *EntityGraph {
	if g == nil {
		return &EntityGraph{}
	}
	entities := make([]Entity, len(g.Entities))
	copy(entities, g.Entities)
	return &EntityGraph{Entities: entities}
}

// Normalize cleans the graph in place: entity ids are slugified, unknown
// entity types coerced to EntityTypeOther, events without a usable title
// or id dropped, and duplicate ids removed keeping the first occurrence.
// Nil slices become empty so serialized graphs always carry arrays.
func (g *Graph) Normalize() {
	if g == nil {
		return
	}

	entities := make([]Entity, 0, len(g.Entities))
	seenEntities := make(map[string]struct{}, len(g.Entities))
	for _, entity := range g.Entities {
		entity.normalize()
		if _, dup := seenEntities[entity.ID]; dup {
			continue
		}
		seenEntities[entity.ID] = struct{}{}
		entities = append(entities, entity)
	}
	g.Entities = entities

	events := make([]Event, 0, len(g.Events))
	seenEvents := make(map[string]struct{}, len(g.Events))
	for _, event := range g.Events {
		event.normalize()
		if event.ID == "" {
			continue
		}
		if _, dup := seenEvents[event.ID]; dup {
			continue
		}
		seenEvents[event.ID] = struct{}{}
		events = append(events, event)
	}
	g.Events = events

	if g.CoreTruths == nil {
		g.CoreTruths = []string{}
	}
}

// EntityGraph is the entity-only projection of a graph. The planner
// reconciles a current and an incoming EntityGraph without needing
// events or truths.
type EntityGraph struct {
	Entities []Entity `json:"entities" yaml:"entities"` // Canonical subjects keyed by slug id
}

// IsEmpty reports whether the graph carries no entities.
func (g *EntityGraph) IsEmpty() bool {
	return g == nil || len(g.Entities) == 0
}

// Entity returns the entity with the given id and whether it exists.
func (g *EntityGraph) Entity(id string) (Entity, bool) {
	if g == nil {
		return Entity{}, false
	}
	for _, entity := range g.Entities {
		if entity.ID == id {
			return entity, true
		}
	}
	return Entity{}, false
}

// Index returns a map of entities keyed by id, first occurrence winning.
func (g *EntityGraph) Index() map[string]Entity {
	if g == nil {
		return map[string]Entity{}
	}
	index := make(map[string]Entity, len(g.Entities))
	for _, entity := range g.Entities {
		if _, ok := index[entity.ID]; !ok {
			index[entity.ID] = entity
		}
	}
	return index
}
