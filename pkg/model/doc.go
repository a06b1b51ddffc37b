// Package model defines the architecture workspace that autolayout reads
// views from and writes computed positions back to.
//
// # Overview
//
// A [Workspace] holds a [Model] (elements and relationships) and a list of
// [View] values. Each view selects elements and relationships in
// presentation order; that order drives numeric id assignment during layout.
//
// # Views
//
// A [ViewContext] resolves a view against its workspace. It satisfies the
// read interface of the graph builder (elements, relationships, scope,
// enterprise boundary, group separator) and the write interface of the
// coordinate mapper (element positions, page dimensions):
//
//	vc, err := model.NewViewContext(ws, "SystemLandscape")
//	if err != nil {
//	    return err
//	}
//	g, err := graph.Build(vc, graph.DefaultParams())
//
// # Grouping
//
// Elements carry an optional group name. When [Model.GroupSeparator] is set,
// a group such as "Enterprise 1/Department 1" denotes nested groups.
package model
