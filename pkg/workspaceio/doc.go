// Package workspaceio reads and writes workspaces as JSON or YAML.
//
// # Formats
//
// The format is chosen by file extension: ".json" for JSON and ".yaml" or
// ".yml" for YAML. [Read] also accepts [FormatAuto], which looks at the
// first non-blank byte: "{" means JSON, anything else YAML.
//
//	ws, err := workspaceio.Import("bigbank.json")
//	if err != nil {
//	    return err
//	}
//	// ... lay out views ...
//	err = workspaceio.Export(ws, "bigbank.json")
//
// JSON output is indented with two spaces. Both formats round-trip every
// field of the workspace, including positions and dimensions written by a
// layout run.
//
// Import does not validate references; the layout pipeline validates a
// workspace before it lays out any view.
package workspaceio
