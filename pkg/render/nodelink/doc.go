// Package nodelink renders the required-by index as a node-link diagram.
//
// # Overview
//
// Each package is a box and each arrow points from a requirer to the
// dependency it requires, directly or through an activated extra. Graphviz
// lays the diagram out top to bottom, so leaf dependencies sink to the
// bottom.
//
// # Usage
//
//	ix := requiredby.Build(pkgs, requiredby.Options{})
//	dot := nodelink.ToDOT(ix, nodelink.Options{Packages: pkgs, Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Packages: the installed packages; their versions label the nodes and
//     dependencies missing from it are drawn dashed
//   - Detailed: include versions in node labels
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering
// (Graphviz compiled to WebAssembly), so no system Graphviz is needed.
package nodelink
