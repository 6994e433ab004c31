package facts

import (
	"reflect"
	"strconv"
	"strings"
)

// EntityType classifies a canonical entity.
type EntityType string

// Entity types recognized by the engine. Extraction output outside this
// set normalizes to EntityTypeOther.
const (
	EntityTypePerson       EntityType = "person"
	EntityTypePlace        EntityType = "place"
	EntityTypeArtifact     EntityType = "artifact"
	EntityTypeOrganization EntityType = "organization"
	EntityTypeConcept      EntityType = "concept"
	EntityTypeEvent        EntityType = "event"
	EntityTypeOther        EntityType = "other"
)

// String returns the entity type as a string.
func (t EntityType) String() string {
	return string(t)
}

// Valid reports whether t is one of the recognized entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypePerson, EntityTypePlace, EntityTypeArtifact,
		EntityTypeOrganization, EntityTypeConcept, EntityTypeEvent, EntityTypeOther:
		return true
	}
	return false
}

// ParseEntityType normalizes raw text into a recognized entity type.
// Unknown or empty input yields EntityTypeOther.
func ParseEntityType(raw string) EntityType {
	t := EntityType(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t
	}
	return EntityTypeOther
}

// EntityTypes returns all recognized entity types in declaration order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityTypePerson,
		EntityTypePlace,
		EntityTypeArtifact,
		EntityTypeOrganization,
		EntityTypeConcept,
		EntityTypeEvent,
		EntityTypeOther,
	}
}

// Entity is a single canonical subject of the universe.
type Entity struct {
	ID         string         `json:"id" yaml:"id"`                                     // Slug identifier, stable across stories
	Type       EntityType     `json:"type" yaml:"type"`                                 // Classification, EntityTypeOther when unknown
	Labels     []string       `json:"labels,omitempty" yaml:"labels,omitempty"`         // Human-readable names, first entry is primary
	Summary    string         `json:"summary,omitempty" yaml:"summary,omitempty"`       // Short prose description
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"` // Structured facts such as titles or allegiances
}

// Label returns the primary human-readable name, falling back to the id.
func (e Entity) Label() string {
	for _, label := range e.Labels {
		if strings.TrimSpace(label) != "" {
			return label
		}
	}
	return e.ID
}

// Era parses the entity's "era" attribute into a year range. A single
// 3-4 digit number yields a single-year era, two numbers yield a range
// with start and end order-normalized. The third return value reports
// whether an era was present and parseable.
func (e Entity) Era() (start, end int, ok bool) {
	raw, exists := e.Attributes["era"]
	if !exists {
		return 0, 0, false
	}
	text, isString := raw.(string)
	if !isString {
		return 0, 0, false
	}
	years := yearPattern.FindAllString(text, 2)
	if len(years) == 0 {
		return 0, 0, false
	}
	start, err := strconv.Atoi(years[0])
	if err != nil {
		return 0, 0, false
	}
	end = start
	if len(years) > 1 {
		if parsed, err := strconv.Atoi(years[1]); err == nil {
			end = parsed
		}
	}
	if end < start {
		start, end = end, start
	}
	return start, end, true
}

// normalize slugifies the id and coerces the type, deriving the id from
// the first label when the id itself is empty.
func (e *Entity) normalize() {
	id := e.ID
	if strings.TrimSpace(id) == "" && len(e.Labels) > 0 {
		id = e.Labels[0]
	}
	e.ID = Slugify(id)
	e.Type = ParseEntityType(string(e.Type))
}

// EntityUpdate pairs an entity id with its current and proposed
// snapshots. It represents a proposed merge that has not been applied;
// the changeset builder decides what the merge means on disk.
type EntityUpdate struct {
	ID       string   `json:"id" yaml:"id"`                               // Slug of the entity being revised
	Existing Entity   `json:"existing" yaml:"existing"`                   // Snapshot currently in the canon
	Incoming Entity   `json:"incoming" yaml:"incoming"`                   // Snapshot proposed by the new story
	Changes  []string `json:"changes,omitempty" yaml:"changes,omitempty"` // Names of fields that differ
}

// NewEntityUpdate pairs two snapshots of the same entity and records
// which fields differ between them.
func NewEntityUpdate(existing, incoming Entity) EntityUpdate {
	changes := []string{}
	if existing.Type != incoming.Type {
		changes = append(changes, "type")
	}
	if !reflect.DeepEqual(existing.Labels, incoming.Labels) {
		changes = append(changes, "labels")
	}
	if existing.Summary != incoming.Summary {
		changes = append(changes, "summary")
	}
	if !reflect.DeepEqual(existing.Attributes, incoming.Attributes) {
		changes = append(changes, "attributes")
	}
	return EntityUpdate{
		ID:       existing.ID,
		Existing: existing,
		Incoming: incoming,
		Changes:  changes,
	}
}

// HasChanges reports whether the two snapshots differ at all.
func (u EntityUpdate) HasChanges() bool {
	return len(u.Changes) > 0
}

// Merged returns the entity as it would look with the incoming snapshot
// layered over the existing one. Empty incoming fields keep the current
// value; incoming attributes are merged key by key.
func (u EntityUpdate) Merged() Entity {
	merged := u.Existing
	if u.Incoming.Type != "" && u.Incoming.Type != EntityTypeOther {
		merged.Type = u.Incoming.Type
	}
	if len(u.Incoming.Labels) > 0 {
		merged.Labels = append([]string(nil), u.Incoming.Labels...)
	}
	if strings.TrimSpace(u.Incoming.Summary) != "" {
		merged.Summary = u.Incoming.Summary
	}
	if len(u.Incoming.Attributes) > 0 {
		attrs := make(map[string]any, len(u.Existing.Attributes)+len(u.Incoming.Attributes))
		for k, v := range u.Existing.Attributes {
			attrs[k] = v
		}
		for k, v := range u.Incoming.Attributes {
			attrs[k] = v
		}
		merged.Attributes = attrs
	}
	return merged
}
