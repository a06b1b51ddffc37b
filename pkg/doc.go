// Package pkg provides the core libraries for automatic diagram layout.
//
// # Overview
//
// Autolayout positions the elements of architecture diagram views. It hands
// each view to Graphviz as a DOT description and maps the drawing back onto
// the view in diagram units. The pkg directory is organized into these areas:
//
//  1. [model] and [workspaceio] - The workspace: elements, relationships, views
//  2. [layout] - Graph building, DOT output, SVG parsing and coordinate mapping
//  3. [engine] - Layout engines (the dot executable or embedded Graphviz)
//  4. [cache] - Engine output caching (files, Redis)
//  5. [pipeline] - Orchestration (build → engine → parse → map)
//
// # Architecture
//
// The data flow for one view:
//
//	Workspace view
//	      ↓
//	 [layout/graph] (numeric ids, nested clusters)
//	      ↓
//	 [layout/dot] (DOT description)
//	      ↓
//	 [engine] (SVG drawing, cached by [cache])
//	      ↓
//	 [layout/svg] (boxes in points)
//	      ↓
//	 [layout/mapper] (positions in diagram units, written onto the view)
//
// # Quick Start
//
//	ws, _ := workspaceio.Import("workspace.json")
//	runner := pipeline.NewRunner(nil, nil, nil, nil)
//	results, _ := runner.ApplyWorkspace(ctx, ws, pipeline.Options{})
//	_ = workspaceio.Export(ws, "workspace.layout.json")
//
// Supporting packages: [errors] carries error codes shared by the CLI and
// the server, [observability] exposes hooks for metrics, and [buildinfo]
// holds the version set at build time.
package pkg
