package model

import (
	"regexp"

	"github.com/matzehuels/autolayout/pkg/errors"
)

// ViewType identifies the kind of diagram a view renders.
type ViewType string

// View types.
const (
	ViewCustom          ViewType = "custom"
	ViewSystemLandscape ViewType = "system-landscape"
	ViewSystemContext   ViewType = "system-context"
	ViewContainer       ViewType = "container"
	ViewComponent       ViewType = "component"
	ViewDynamic         ViewType = "dynamic"
	ViewDeployment      ViewType = "deployment"
)

// ValidViewTypes is the set of supported view types.
var ValidViewTypes = map[ViewType]bool{
	ViewCustom:          true,
	ViewSystemLandscape: true,
	ViewSystemContext:   true,
	ViewContainer:       true,
	ViewComponent:       true,
	ViewDynamic:         true,
	ViewDeployment:      true,
}

// HasEnterpriseBoundary reports whether views of this type can show an
// enterprise boundary.
func (t ViewType) HasEnterpriseBoundary() bool {
	return t == ViewSystemLandscape || t == ViewSystemContext
}

// HasScopeBoundary reports whether views of this type render their scope
// element as an enclosing boundary.
func (t ViewType) HasScopeBoundary() bool {
	return t == ViewContainer || t == ViewComponent
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileBase turns a view key into the base name of the files written for the
// view. Distinct keys can share a base name; Workspace.Validate rejects them.
func FileBase(key string) string {
	base := unsafeFileChars.ReplaceAllString(key, "_")
	if base == "" || base == "." || base == ".." {
		return "view"
	}
	return base
}

// ElementView places one element on a view.
type ElementView struct {
	ID string `json:"id" yaml:"id"`
	X  int    `json:"x" yaml:"x"`
	Y  int    `json:"y" yaml:"y"`
}

// RelationshipView places one relationship on a view.
type RelationshipView struct {
	ID    string `json:"id" yaml:"id"`
	Order string `json:"order,omitempty" yaml:"order,omitempty"`
}

// AutomaticLayout holds per-view layout overrides.
type AutomaticLayout struct {
	RankDirection  string `json:"rankDirection,omitempty" yaml:"rankDirection,omitempty"`
	RankSeparation int    `json:"rankSeparation,omitempty" yaml:"rankSeparation,omitempty"`
	NodeSeparation int    `json:"nodeSeparation,omitempty" yaml:"nodeSeparation,omitempty"`
}

// Dimensions is the page size of a view in diagram units.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// View is a named subset of the model selected for rendering.
type View struct {
	Key   string   `json:"key" yaml:"key"`
	Type  ViewType `json:"type" yaml:"type"`
	Title string   `json:"title,omitempty" yaml:"title,omitempty"`

	// Scope is the element a view is about: the software system of a
	// system context or container view, the container of a component view.
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`

	EnterpriseBoundaryVisible *bool            `json:"enterpriseBoundaryVisible,omitempty" yaml:"enterpriseBoundaryVisible,omitempty"`
	AutomaticLayout           *AutomaticLayout `json:"automaticLayout,omitempty" yaml:"automaticLayout,omitempty"`
	Dimensions                *Dimensions      `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`

	Elements      []ElementView      `json:"elements" yaml:"elements"`
	Relationships []RelationshipView `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

func (v *View) validate(elements map[string]*Element, relationships map[string]bool) error {
	if !ValidViewTypes[v.Type] {
		return errors.New(errors.ErrCodeInvalidView, "unknown view type %q", v.Type)
	}
	if v.Type.HasScopeBoundary() && v.Scope == "" {
		return errors.New(errors.ErrCodeInvalidView, "%s view requires a scope element", v.Type)
	}
	if v.Scope != "" {
		if _, ok := elements[v.Scope]; !ok {
			return errors.New(errors.ErrCodeInvalidView, "unknown scope element %q", v.Scope)
		}
	}
	seen := make(map[string]bool, len(v.Elements))
	for _, ev := range v.Elements {
		if _, ok := elements[ev.ID]; !ok {
			return errors.New(errors.ErrCodeInvalidView, "unknown element %q", ev.ID)
		}
		if seen[ev.ID] {
			return errors.New(errors.ErrCodeInvalidView, "element %q added twice", ev.ID)
		}
		seen[ev.ID] = true
	}
	for _, rv := range v.Relationships {
		if !relationships[rv.ID] {
			return errors.New(errors.ErrCodeInvalidView, "unknown relationship %q", rv.ID)
		}
	}
	return nil
}

// =============================================================================
// ViewContext
// =============================================================================

// ViewContext binds a view to the workspace that owns it. It is the read
// side consumed by the graph builder and the write side the coordinate
// mapper places positions onto.
//
// A ViewContext only writes to its own view, so contexts for different
// views of one workspace may be used from different goroutines.
type ViewContext struct {
	ws            *Workspace
	view          *View
	elements      map[string]*Element
	relationships map[string]*Relationship
}

// NewViewContext resolves the view with the given key.
func NewViewContext(ws *Workspace, key string) (*ViewContext, error) {
	v, ok := ws.View(key)
	if !ok {
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %q not found", key)
	}
	vc := &ViewContext{
		ws:            ws,
		view:          v,
		elements:      make(map[string]*Element, len(ws.Model.Elements)),
		relationships: make(map[string]*Relationship, len(ws.Model.Relationships)),
	}
	for i := range ws.Model.Elements {
		vc.elements[ws.Model.Elements[i].ID] = &ws.Model.Elements[i]
	}
	for i := range ws.Model.Relationships {
		vc.relationships[ws.Model.Relationships[i].ID] = &ws.Model.Relationships[i]
	}
	return vc, nil
}

// View returns the underlying view.
func (vc *ViewContext) View() *View { return vc.view }

// Key returns the view key.
func (vc *ViewContext) Key() string { return vc.view.Key }

// Type returns the view type.
func (vc *ViewContext) Type() ViewType { return vc.view.Type }

// Elements returns the view's elements in presentation order.
// References to unknown elements are skipped.
func (vc *ViewContext) Elements() []*Element {
	out := make([]*Element, 0, len(vc.view.Elements))
	for _, ev := range vc.view.Elements {
		if e, ok := vc.elements[ev.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Relationships returns the view's relationships in presentation order.
// A relationship listed twice (dynamic views) appears twice.
func (vc *ViewContext) Relationships() []*Relationship {
	out := make([]*Relationship, 0, len(vc.view.Relationships))
	for _, rv := range vc.view.Relationships {
		if r, ok := vc.relationships[rv.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Scope returns the element rendered as the view's outer boundary, or nil.
func (vc *ViewContext) Scope() *Element {
	if !vc.view.Type.HasScopeBoundary() {
		return nil
	}
	return vc.elements[vc.view.Scope]
}

// EnterpriseBoundaryVisible reports whether internal elements are drawn
// inside an enterprise boundary. Defaults to true where supported.
func (vc *ViewContext) EnterpriseBoundaryVisible() bool {
	if !vc.view.Type.HasEnterpriseBoundary() {
		return false
	}
	return vc.view.EnterpriseBoundaryVisible == nil || *vc.view.EnterpriseBoundaryVisible
}

// GroupSeparator returns the workspace group separator.
func (vc *ViewContext) GroupSeparator() string { return vc.ws.Model.GroupSeparator }

// SetElementPosition records a computed position for an element on the view.
func (vc *ViewContext) SetElementPosition(id string, x, y int) error {
	for i := range vc.view.Elements {
		if vc.view.Elements[i].ID == id {
			vc.view.Elements[i].X = x
			vc.view.Elements[i].Y = y
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidView, "element %q is not on view %q", id, vc.view.Key)
}

// SetDimensions records the page size of the view.
func (vc *ViewContext) SetDimensions(width, height int) {
	vc.view.Dimensions = &Dimensions{Width: width, Height: height}
}
