package engine

import (
	"reflect"

	"github.com/verdantio/carbonledger/internal/domain"
)

// ChangeKind is the semantic nature of a consumption document change.
// It gates the whole pipeline: ChangeReinvocation in particular is the
// suppression mechanism for the engine's own write-back of computed
// fields, which would otherwise re-trigger the engine forever.
type ChangeKind string

// The classifier's states.
const (
	// ChangeCreated: no previous snapshot, current exists.
	ChangeCreated ChangeKind = "created"
	// ChangeDeleted: previous exists, no current snapshot.
	ChangeDeleted ChangeKind = "deleted"
	// ChangeEdited: a quantitative field (value or category sub-payload)
	// differs; emissions must be recomputed.
	ChangeEdited ChangeKind = "edited"
	// ChangeUpdated: quantitative fields are unchanged but computed
	// fields are missing; recomputation fills them in.
	ChangeUpdated ChangeKind = "updated"
	// ChangeReinvocation: quantitative fields unchanged and computed
	// fields already present; the trigger was the engine's own write.
	ChangeReinvocation ChangeKind = "reinvocation"
	// ChangeNone: neither snapshot exists; nothing to do.
	ChangeNone ChangeKind = "none"
)

// Classify determines the change kind from the previous and current
// snapshot of a consumption. Either snapshot may be nil.
func Classify(prev, curr *domain.Consumption) ChangeKind {
	switch {
	case prev == nil && curr == nil:
		return ChangeNone
	case prev == nil:
		return ChangeCreated
	case curr == nil:
		return ChangeDeleted
	}

	if !payloadEqual(prev, curr) {
		return ChangeEdited
	}
	if prev.Value != curr.Value {
		return ChangeEdited
	}
	// Value unchanged: the write either filled in computed fields (our
	// own write-back) or touched something benign. A computed zero
	// still counts as present.
	if curr.Computed() {
		return ChangeReinvocation
	}
	return ChangeUpdated
}

// payloadEqual compares the category-specific sub-payload of the
// current category by deep value equality.
func payloadEqual(prev, curr *domain.Consumption) bool {
	switch curr.Category {
	case domain.CategoryElectricity:
		return reflect.DeepEqual(prev.Electricity, curr.Electricity)
	case domain.CategoryHeating:
		return reflect.DeepEqual(prev.Heating, curr.Heating)
	case domain.CategoryTransportation:
		return reflect.DeepEqual(prev.Transportation, curr.Transportation)
	}
	return reflect.DeepEqual(prev, curr)
}
