package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  EntityType
	}{
		{"person", "person", EntityTypePerson},
		{"uppercase", "PLACE", EntityTypePlace},
		{"padded", "  artifact  ", EntityTypeArtifact},
		{"organization", "organization", EntityTypeOrganization},
		{"concept", "concept", EntityTypeConcept},
		{"event", "event", EntityTypeEvent},
		{"other passes through", "other", EntityTypeOther},
		{"unknown coerced", "dragon", EntityTypeOther},
		{"empty coerced", "", EntityTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEntityType(tt.input))
		})
	}
}

func TestEntityTypeValid(t *testing.T) {
	for _, et := range EntityTypes() {
		assert.True(t, et.Valid(), "expected %s to be valid", et)
	}
	assert.False(t, EntityType("dragon").Valid())
	assert.False(t, EntityType("").Valid())
}

func TestEntityLabel(t *testing.T) {
	t.Run("first label wins", func(t *testing.T) {
		e := Entity{ID: "rytir_jan", Labels: []string{"Rytíř Jan", "Jan z Brodu"}}
		assert.Equal(t, "Rytíř Jan", e.Label())
	})

	t.Run("blank labels skipped", func(t *testing.T) {
		e := Entity{ID: "rytir_jan", Labels: []string{"  ", "Jan z Brodu"}}
		assert.Equal(t, "Jan z Brodu", e.Label())
	})

	t.Run("falls back to id", func(t *testing.T) {
		e := Entity{ID: "rytir_jan"}
		assert.Equal(t, "rytir_jan", e.Label())
	})
}

func TestEntityEra(t *testing.T) {
	tests := []struct {
		name      string
		era       any
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"range", "1200-1250", 1200, 1250, true},
		{"single year", "1342", 1342, 1342, true},
		{"reversed range normalized", "1250-1200", 1200, 1250, true},
		{"prose around years", "circa 987 to 1012", 987, 1012, true},
		{"no digits", "dawn age", 0, 0, false},
		{"non-string value", 1200, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entity{ID: "hrad_kamenec", Attributes: map[string]any{"era": tt.era}}
			start, end, ok := e.Era()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}

	t.Run("missing attribute", func(t *testing.T) {
		_, _, ok := Entity{ID: "hrad_kamenec"}.Era()
		assert.False(t, ok)
	})
}

func TestNewEntityUpdate(t *testing.T) {
	existing := Entity{
		ID:      "rytir_jan",
		Type:    EntityTypeOther,
		Labels:  []string{"Jan"},
		Summary: "A wanderer.",
		Attributes: map[string]any{
			"rank": "squire",
		},
	}
	incoming := Entity{
		ID:      "rytir_jan",
		Type:    EntityTypePerson,
		Labels:  []string{"Jan"},
		Summary: "A knight of the northern marches.",
		Attributes: map[string]any{
			"rank": "squire",
		},
	}

	update := NewEntityUpdate(existing, incoming)

	assert.Equal(t, "rytir_jan", update.ID)
	assert.Equal(t, []string{"type", "summary"}, update.Changes)
	assert.True(t, update.HasChanges())

	identical := NewEntityUpdate(existing, existing)
	assert.False(t, identical.HasChanges())
}

func TestEntityUpdateMerged(t *testing.T) {
	existing := Entity{
		ID:      "rytir_jan",
		Type:    EntityTypePerson,
		Labels:  []string{"Rytíř Jan"},
		Summary: "A wanderer.",
		Attributes: map[string]any{
			"rank": "squire",
		},
	}
	incoming := Entity{
		ID:      "rytir_jan",
		Type:    EntityTypeOther,
		Summary: "A knight of the northern marches.",
		Attributes: map[string]any{
			"allegiance": "hrad_kamenec",
		},
	}

	merged := NewEntityUpdate(existing, incoming).Merged()

	// The default type never overwrites a concrete classification,
	// missing labels keep the canon value, attributes merge per key.
	assert.Equal(t, EntityTypePerson, merged.Type)
	assert.Equal(t, []string{"Rytíř Jan"}, merged.Labels)
	assert.Equal(t, "A knight of the northern marches.", merged.Summary)
	assert.Equal(t, "squire", merged.Attributes["rank"])
	assert.Equal(t, "hrad_kamenec", merged.Attributes["allegiance"])

	// Source snapshots stay untouched.
	assert.Equal(t, "A wanderer.", existing.Summary)
	assert.Nil(t, existing.Attributes["allegiance"])
}
