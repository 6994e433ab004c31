package planner

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/errors"
	"github.com/lorekeep/lorekeep/pkg/facts"
)

// matcher is a JSON-capable fake that records the match request and
// replays a canned response.
type matcher struct {
	response string
	err      error
	called   bool
	request  map[string]json.RawMessage
}

func (m *matcher) Analyse(context.Context, string, string) (capability.Result, error) {
	return capability.Result{}, nil
}

func (m *matcher) Summarise(context.Context, string) (string, error) {
	return "", nil
}

func (m *matcher) GenerateJSON(_ context.Context, _ string, user string) (capability.Result, error) {
	m.called = true
	m.request = map[string]json.RawMessage{}
	_ = json.Unmarshal([]byte(user), &m.request)
	if m.err != nil {
		return capability.Result{}, m.err
	}
	return capability.TextResult(m.response, capability.Usage{TotalTokens: 5}), nil
}

func entityGraph(entities ...facts.Entity) *facts.EntityGraph {
	return &facts.EntityGraph{Entities: entities}
}

func opIDs(ops []Operation) []string {
	ids := make([]string, 0, len(ops))
	for _, op := range ops {
		ids = append(ids, op.EntityID())
	}
	return ids
}

func TestPlanEmptyCurrentAllCreates(t *testing.T) {
	incoming := entityGraph(
		facts.Entity{ID: "rytir_jan", Type: facts.EntityTypePerson},
		facts.Entity{ID: "hrad_kamenec", Type: facts.EntityTypePlace},
	)

	cs, err := New().Plan(context.Background(), entityGraph(), incoming)
	require.NoError(t, err)

	assert.Len(t, cs.Creates(), 2)
	assert.Empty(t, cs.Updates())
	assert.ElementsMatch(t, []string{"rytir_jan", "hrad_kamenec"}, opIDs(cs.Operations))
}

func TestPlanMatchingIDBecomesUpdate(t *testing.T) {
	current := entityGraph(facts.Entity{ID: "hero", Type: facts.EntityTypePerson})
	incoming := entityGraph(facts.Entity{ID: "hero", Type: facts.EntityTypePerson, Summary: "X"})

	cs, err := New().Plan(context.Background(), current, incoming)
	require.NoError(t, err)

	assert.Empty(t, cs.Creates())
	updates := cs.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, "hero", updates[0].ID)
	assert.Equal(t, "X", updates[0].Incoming.Summary)
	assert.Equal(t, []string{"summary"}, updates[0].Changes)
}

func TestPlanSkipsMatchPhaseWithoutUnmatchedExisting(t *testing.T) {
	cap := &matcher{response: `{}`}
	current := entityGraph(facts.Entity{ID: "hero", Type: facts.EntityTypePerson})
	incoming := entityGraph(
		facts.Entity{ID: "hero", Type: facts.EntityTypePerson},
		facts.Entity{ID: "newcomer", Type: facts.EntityTypePerson},
	)

	cs, err := New(WithCapability(cap)).Plan(context.Background(), current, incoming)
	require.NoError(t, err)

	assert.False(t, cap.called, "no match call when every existing entity matched by id")
	assert.Len(t, cs.Creates(), 1)
	assert.Len(t, cs.Updates(), 1)
}

func TestPlanAmbiguousMatchAccepted(t *testing.T) {
	cap := &matcher{response: `{
		"truly_new_entities": [{"id": "dragon", "type": "other"}],
		"matched_updates": [
			{"id": "jan_of_the_ford", "incoming": {"id": "rytir_jan", "type": "person"}}
		]
	}`}

	current := entityGraph(facts.Entity{ID: "jan_of_the_ford", Type: facts.EntityTypePerson, Summary: "A knight at the ford."})
	incoming := entityGraph(
		facts.Entity{ID: "rytir_jan", Type: facts.EntityTypePerson, Summary: "The knight Jan."},
		facts.Entity{ID: "dragon", Type: facts.EntityTypeOther},
	)

	cs, err := New(WithCapability(cap)).Plan(context.Background(), current, incoming)
	require.NoError(t, err)
	assert.True(t, cap.called)
	assert.Contains(t, cap.request, "existing_unmatched")
	assert.Contains(t, cap.request, "potential_new")

	updates := cs.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, "jan_of_the_ford", updates[0].ID)
	// The pool snapshot wins over whatever the model echoed back.
	assert.Equal(t, "The knight Jan.", updates[0].Incoming.Summary)

	creates := cs.Creates()
	require.Len(t, creates, 1)
	assert.Equal(t, "dragon", creates[0].ID)
	assert.Equal(t, 5, cs.Usage.TotalTokens)
}

func TestPlanAmbiguousMatchUnknownIDDropped(t *testing.T) {
	cap := &matcher{response: `{
		"truly_new_entities": [],
		"matched_updates": [
			{"id": "nobody_knows_this", "incoming": {"id": "rytir_jan", "type": "person"}}
		]
	}`}

	current := entityGraph(facts.Entity{ID: "jan_of_the_ford", Type: facts.EntityTypePerson})
	incoming := entityGraph(facts.Entity{ID: "rytir_jan", Type: facts.EntityTypePerson})

	cs, err := New(WithCapability(cap)).Plan(context.Background(), current, incoming)
	require.NoError(t, err)

	// The malformed entry is dropped and the safety net keeps the
	// incoming entity as a creation.
	assert.Empty(t, cs.Updates())
	require.Len(t, cs.Creates(), 1)
	assert.Equal(t, "rytir_jan", cs.Creates()[0].ID)
}

func TestPlanAmbiguousMatchFabricatedIncomingDropped(t *testing.T) {
	// The model matches a real existing entity to an incoming entity it
	// made up; the fabricated snapshot must never become an update.
	cap := &matcher{response: `{
		"truly_new_entities": [],
		"matched_updates": [
			{"id": "jan_of_the_ford", "incoming": {"id": "invented_by_model", "summary": "hallucinated"}}
		]
	}`}

	current := entityGraph(facts.Entity{ID: "jan_of_the_ford", Type: facts.EntityTypePerson})
	incoming := entityGraph(facts.Entity{ID: "rytir_jan", Type: facts.EntityTypePerson})

	cs, err := New(WithCapability(cap)).Plan(context.Background(), current, incoming)
	require.NoError(t, err)

	assert.Empty(t, cs.Updates())
	require.Len(t, cs.Creates(), 1)
	assert.Equal(t, "rytir_jan", cs.Creates()[0].ID)
}

func TestPlanAmbiguousMatchMissingIncomingDropped(t *testing.T) {
	cap := &matcher{response: `{
		"truly_new_entities": [],
		"matched_updates": [{"id": "jan_of_the_ford"}]
	}`}

	current := entityGraph(facts.Entity{ID: "jan_of_the_ford", Type: facts.EntityTypePerson})
	incoming := entityGraph(facts.Entity{ID: "rytir_jan", Type: facts.EntityTypePerson})

	cs, err := New(WithCapability(cap)).Plan(context.Background(), current, incoming)
	require.NoError(t, err)

	assert.Empty(t, cs.Updates())
	require.Len(t, cs.Creates(), 1)
	assert.Equal(t, "rytir_jan", cs.Creates()[0].ID)
}

func TestPlanAmbiguousMatchCallFailureFallsBack(t *testing.T) {
	cap := &matcher{err: errors.New("model unavailable")}

	current := entityGraph(facts.Entity{ID: "jan_of_the_ford", Type: facts.EntityTypePerson})
	incoming := entityGraph(facts.Entity{ID: "rytir_jan", Type: facts.EntityTypePerson})

	cs, err := New(WithCapability(cap)).Plan(context.Background(), current, incoming)
	require.NoError(t, err, "planning never fails because of the match call")
	require.Len(t, cs.Creates(), 1)
	assert.Equal(t, "rytir_jan", cs.Creates()[0].ID)
}

func TestPlanAmbiguousMatchGarbageResponseFallsBack(t *testing.T) {
	cap := &matcher{response: "certainly! here are some thoughts about matching"}

	current := entityGraph(facts.Entity{ID: "jan_of_the_ford", Type: facts.EntityTypePerson})
	incoming := entityGraph(facts.Entity{ID: "rytir_jan", Type: facts.EntityTypePerson})

	cs, err := New(WithCapability(cap)).Plan(context.Background(), current, incoming)
	require.NoError(t, err)
	require.Len(t, cs.Creates(), 1)
	assert.Empty(t, cs.Updates())
}

func TestPlanSafetyNetKeepsUnclaimedEntities(t *testing.T) {
	// The model forgets about "dragon" entirely.
	cap := &matcher{response: `{
		"truly_new_entities": [],
		"matched_updates": [
			{"id": "jan_of_the_ford", "incoming": {"id": "rytir_jan", "type": "person"}}
		]
	}`}

	current := entityGraph(facts.Entity{ID: "jan_of_the_ford", Type: facts.EntityTypePerson})
	incoming := entityGraph(
		facts.Entity{ID: "rytir_jan", Type: facts.EntityTypePerson},
		facts.Entity{ID: "dragon", Type: facts.EntityTypeOther},
	)

	cs, err := New(WithCapability(cap)).Plan(context.Background(), current, incoming)
	require.NoError(t, err)

	assert.Len(t, cs.Updates(), 1)
	require.Len(t, cs.Creates(), 1)
	assert.Equal(t, "dragon", cs.Creates()[0].ID)
}

func TestPlanDuplicateProtection(t *testing.T) {
	// The model both matches rytir_jan and declares it truly new.
	cap := &matcher{response: `{
		"truly_new_entities": [{"id": "rytir_jan", "type": "person"}],
		"matched_updates": [
			{"id": "jan_of_the_ford", "incoming": {"id": "rytir_jan", "type": "person"}}
		]
	}`}

	current := entityGraph(facts.Entity{ID: "jan_of_the_ford", Type: facts.EntityTypePerson})
	incoming := entityGraph(facts.Entity{ID: "rytir_jan", Type: facts.EntityTypePerson})

	cs, err := New(WithCapability(cap)).Plan(context.Background(), current, incoming)
	require.NoError(t, err)

	assert.Len(t, cs.Updates(), 1)
	assert.Empty(t, cs.Creates(), "matched incoming id never doubles as a creation")
}

func TestPlanCreatesPrecedeUpdates(t *testing.T) {
	current := entityGraph(facts.Entity{ID: "hero", Type: facts.EntityTypePerson})
	incoming := entityGraph(
		facts.Entity{ID: "hero", Type: facts.EntityTypePerson, Summary: "older"},
		facts.Entity{ID: "newcomer", Type: facts.EntityTypePerson},
	)

	cs, err := New().Plan(context.Background(), current, incoming)
	require.NoError(t, err)

	require.Len(t, cs.Operations, 2)
	assert.Equal(t, OperationCreate, cs.Operations[0].Type)
	assert.Equal(t, OperationUpdate, cs.Operations[1].Type)
}
