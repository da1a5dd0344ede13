package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pipinfo/pkg/metadata"
	"github.com/matzehuels/pipinfo/pkg/requiredby"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Packages are the installed packages. Nodes for them carry their
	// version; dependencies not among them are drawn dashed. When nil,
	// every node is drawn as installed.
	Packages []*metadata.Package
	// Detailed adds the installed version to node labels.
	Detailed bool
}

// ToDOT converts a required-by index to Graphviz DOT format. Output is
// deterministic: nodes and edges are sorted by name.
func ToDOT(ix requiredby.Index, opts Options) string {
	installed := make(map[string][]string)
	for _, p := range opts.Packages {
		k := p.Key()
		if !slices.Contains(installed[k], p.Version) {
			installed[k] = append(installed[k], p.Version)
		}
	}

	nodes := make(map[string]bool)
	type edge struct{ from, to string }
	var edges []edge
	for _, dep := range ix.Names() {
		nodes[dep] = true
		for _, requirer := range ix[dep] {
			nodes[requirer] = true
			edges = append(edges, edge{requirer, dep})
		}
	}
	slices.SortFunc(edges, func(a, b edge) int {
		if c := strings.Compare(a.from, b.from); c != 0 {
			return c
		}
		return strings.Compare(a.to, b.to)
	})

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range slices.Sorted(maps.Keys(nodes)) {
		versions, ok := installed[name]
		missing := opts.Packages != nil && !ok
		attrs := fmtAttrs(fmtLabel(name, versions, opts.Detailed), missing)
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.from, e.to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(name string, versions []string, detailed bool) string {
	if !detailed || len(versions) == 0 {
		return name
	}
	return name + "\n" + strings.Join(versions, ", ")
}

func fmtAttrs(label string, missing bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if missing {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// Format is an output format of [Render].
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Render produces the diagram in the given format. DOT is returned as-is;
// SVG and PNG are rendered with Graphviz.
func Render(ctx context.Context, dot string, format Format) ([]byte, error) {
	switch format {
	case FormatDOT, "":
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return render(ctx, dot, graphviz.PNG)
	}
	return nil, fmt.Errorf("unsupported format %q (want dot, svg or png)", format)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	svg, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg), nil
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based <svg> header with one
// whose viewBox starts at the origin so the diagram scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
