package model

import (
	"fmt"

	"github.com/matzehuels/autolayout/pkg/errors"
)

// =============================================================================
// Element Kinds & Locations
// =============================================================================

// Kind identifies what an element represents in the architecture model.
type Kind string

// Element kinds.
const (
	KindPerson         Kind = "person"
	KindSoftwareSystem Kind = "software-system"
	KindContainer      Kind = "container"
	KindComponent      Kind = "component"
	KindCustom         Kind = "custom"
	KindDeploymentNode Kind = "deployment-node"
)

var validKinds = map[Kind]bool{
	KindPerson:         true,
	KindSoftwareSystem: true,
	KindContainer:      true,
	KindComponent:      true,
	KindCustom:         true,
	KindDeploymentNode: true,
}

// Location tags an element as inside or outside the enterprise.
type Location string

// Element locations. The zero value means unspecified.
const (
	LocationUnspecified Location = ""
	LocationInternal    Location = "internal"
	LocationExternal    Location = "external"
)

// =============================================================================
// Model
// =============================================================================

// Element is a node in the architecture model.
type Element struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Kind     Kind     `json:"kind" yaml:"kind"`
	Location Location `json:"location,omitempty" yaml:"location,omitempty"`
	Group    string   `json:"group,omitempty" yaml:"group,omitempty"`

	// Parent is the owning element: the software system of a container, the
	// container of a component, or the enclosing deployment node.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// IsInternal reports whether the element sits inside the enterprise.
func (e *Element) IsInternal() bool { return e.Location == LocationInternal }

// Relationship is a directed connection between two elements.
type Relationship struct {
	ID          string `json:"id" yaml:"id"`
	Source      string `json:"sourceId" yaml:"sourceId"`
	Destination string `json:"destinationId" yaml:"destinationId"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Model holds every element and relationship of a workspace.
type Model struct {
	Elements      []Element      `json:"elements" yaml:"elements"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`

	// GroupSeparator splits group names into nested groups. Empty disables nesting.
	GroupSeparator string `json:"groupSeparator,omitempty" yaml:"groupSeparator,omitempty"`
}

// Workspace is the unit loaded from and written back to disk.
type Workspace struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Model       Model  `json:"model" yaml:"model"`
	Views       []View `json:"views" yaml:"views"`
}

// Element returns the element with the given id.
func (w *Workspace) Element(id string) (*Element, bool) {
	for i := range w.Model.Elements {
		if w.Model.Elements[i].ID == id {
			return &w.Model.Elements[i], true
		}
	}
	return nil, false
}

// View returns the view with the given key.
func (w *Workspace) View(key string) (*View, bool) {
	for i := range w.Views {
		if w.Views[i].Key == key {
			return &w.Views[i], true
		}
	}
	return nil, false
}

// Validate checks that ids are unique and every reference resolves.
func (w *Workspace) Validate() error {
	if err := errors.ValidateGroupSeparator(w.Model.GroupSeparator); err != nil {
		return err
	}

	elements := make(map[string]*Element, len(w.Model.Elements))
	for i := range w.Model.Elements {
		e := &w.Model.Elements[i]
		if e.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "element %q has no id", e.Name)
		}
		if _, dup := elements[e.ID]; dup {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate element id %q", e.ID)
		}
		if !validKinds[e.Kind] {
			return errors.New(errors.ErrCodeInvalidInput, "element %q has unknown kind %q", e.ID, e.Kind)
		}
		switch e.Location {
		case LocationUnspecified, LocationInternal, LocationExternal:
		default:
			return errors.New(errors.ErrCodeInvalidInput, "element %q has unknown location %q", e.ID, e.Location)
		}
		elements[e.ID] = e
	}
	for _, e := range elements {
		if e.Parent != "" {
			if _, ok := elements[e.Parent]; !ok {
				return errors.New(errors.ErrCodeInvalidInput, "element %q has unknown parent %q", e.ID, e.Parent)
			}
		}
	}
	if err := checkParentCycles(elements); err != nil {
		return err
	}

	relationships := make(map[string]bool, len(w.Model.Relationships))
	for _, r := range w.Model.Relationships {
		if r.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "relationship %s -> %s has no id", r.Source, r.Destination)
		}
		if relationships[r.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate relationship id %q", r.ID)
		}
		if _, ok := elements[r.Source]; !ok {
			return errors.New(errors.ErrCodeInvalidInput, "relationship %q has unknown source %q", r.ID, r.Source)
		}
		if _, ok := elements[r.Destination]; !ok {
			return errors.New(errors.ErrCodeInvalidInput, "relationship %q has unknown destination %q", r.ID, r.Destination)
		}
		relationships[r.ID] = true
	}

	keys := make(map[string]bool, len(w.Views))
	bases := make(map[string]string, len(w.Views))
	for i := range w.Views {
		v := &w.Views[i]
		if err := errors.ValidateViewKey(v.Key); err != nil {
			return err
		}
		if keys[v.Key] {
			return errors.New(errors.ErrCodeInvalidView, "duplicate view key %q", v.Key)
		}
		keys[v.Key] = true
		base := FileBase(v.Key)
		if other, dup := bases[base]; dup {
			return errors.New(errors.ErrCodeInvalidView, "view keys %q and %q share the file name %q", other, v.Key, base)
		}
		bases[base] = v.Key
		if err := v.validate(elements, relationships); err != nil {
			return fmt.Errorf("view %s: %w", v.Key, err)
		}
	}
	return nil
}

func checkParentCycles(elements map[string]*Element) error {
	for id := range elements {
		seen := map[string]bool{id: true}
		for cur := elements[id].Parent; cur != ""; cur = elements[cur].Parent {
			if seen[cur] {
				return errors.New(errors.ErrCodeInvalidInput, "element %q has a parent cycle", id)
			}
			seen[cur] = true
		}
	}
	return nil
}
