// Package planner reconciles an incoming fact entity graph against the
// current canon and emits the change operations needed to absorb it.
package planner

import (
	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/facts"
)

// OperationType tags a change operation.
type OperationType string

const (
	// OperationCreate introduces an entity the canon has never seen.
	OperationCreate OperationType = "create"
	// OperationUpdate revises an entity the canon already tracks.
	OperationUpdate OperationType = "update"
)

// Operation is a tagged union: exactly one of Create or Update is set,
// matching the Type tag.
type Operation struct {
	Type   OperationType      `json:"type" yaml:"type"`
	Create *facts.Entity      `json:"create,omitempty" yaml:"create,omitempty"`
	Update *facts.EntityUpdate `json:"update,omitempty" yaml:"update,omitempty"`
}

// EntityID returns the id of the entity the operation touches.
func (op Operation) EntityID() string {
	switch op.Type {
	case OperationCreate:
		if op.Create != nil {
			return op.Create.ID
		}
	case OperationUpdate:
		if op.Update != nil {
			return op.Update.ID
		}
	}
	return ""
}

// newCreate wraps an entity in a create operation.
func newCreate(entity facts.Entity) Operation {
	return Operation{Type: OperationCreate, Create: &entity}
}

// newUpdate wraps an entity update in an update operation.
func newUpdate(update facts.EntityUpdate) Operation {
	return Operation{Type: OperationUpdate, Update: &update}
}

// ChangeSet is the ordered list of operations a planning run produced,
// plus token accounting when the ambiguous-match phase called a model.
type ChangeSet struct {
	Operations []Operation      `json:"operations" yaml:"operations"`
	Usage      capability.Usage `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// IsEmpty reports whether the change set carries no operations.
func (cs *ChangeSet) IsEmpty() bool {
	return cs == nil || len(cs.Operations) == 0
}

// Creates returns the entities introduced by create operations, in
// operation order.
func (cs *ChangeSet) Creates() []facts.Entity {
	if cs == nil {
		return nil
	}
	var creates []facts.Entity
	for _, op := range cs.Operations {
		if op.Type == OperationCreate && op.Create != nil {
			creates = append(creates, *op.Create)
		}
	}
	return creates
}

// Updates returns the entity updates carried by update operations, in
// operation order.
func (cs *ChangeSet) Updates() []facts.EntityUpdate {
	if cs == nil {
		return nil
	}
	var updates []facts.EntityUpdate
	for _, op := range cs.Operations {
		if op.Type == OperationUpdate && op.Update != nil {
			updates = append(updates, *op.Update)
		}
	}
	return updates
}
