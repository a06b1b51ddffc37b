// Package dot renders an intermediate layout graph as Graphviz DOT source.
//
// The output is deterministic: the same graph always produces the same bytes.
// All numbers are formatted with strconv, so the decimal separator is always
// "." whatever locale the host process runs under.
//
// Each element becomes a fixed-size box whose name, id attribute and label
// prefix all carry its numeric id:
//
//	3 [width=1.500000,height=1.000000,fixedsize=true,id=3,label="3: Software System"]
//
// Clusters become nested subgraphs named by their cluster key, relationships
// become edges carrying their own id.
package dot

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/autolayout/pkg/layout/graph"
)

const indentUnit = "  "

// Marshal renders g as DOT source.
func Marshal(g *graph.Graph) []byte {
	var buf bytes.Buffer
	p := g.Params

	buf.WriteString("digraph {\n")
	buf.WriteString("  compound=true\n")
	buf.WriteString("  graph [splines=polyline,rankdir=")
	buf.WriteString(string(p.RankDirection))
	buf.WriteString(",ranksep=")
	buf.WriteString(FormatDecimal(p.RankSeparation / graph.UnitsPerInch))
	buf.WriteString(",nodesep=")
	buf.WriteString(FormatDecimal(p.NodeSeparation / graph.UnitsPerInch))
	buf.WriteString(",fontsize=")
	buf.WriteString(strconv.Itoa(p.FontSize))
	buf.WriteString("]\n")
	buf.WriteString("  node [shape=box,fontsize=")
	buf.WriteString(strconv.Itoa(p.FontSize))
	buf.WriteString("]\n")
	buf.WriteString("  edge []\n")
	buf.WriteString("\n")

	w := &writer{buf: &buf, params: p}
	for _, c := range g.Clusters {
		w.cluster(c, 1)
	}
	for _, n := range g.RootNodes {
		w.node(n, 1)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		buf.WriteString(indentUnit)
		buf.WriteString(e.From.String())
		buf.WriteString(" -> ")
		buf.WriteString(e.To.String())
		buf.WriteString(" [id=")
		buf.WriteString(e.ID.String())
		buf.WriteString("]\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

// Write renders g as DOT source to w.
func Write(w io.Writer, g *graph.Graph) error {
	_, err := w.Write(Marshal(g))
	return err
}

type writer struct {
	buf    *bytes.Buffer
	params graph.Params
}

func (w *writer) cluster(c *graph.Cluster, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	w.buf.WriteString(indent)
	w.buf.WriteString("subgraph ")
	w.buf.WriteString(c.Key)
	w.buf.WriteString(" {\n")
	w.buf.WriteString(indent)
	w.buf.WriteString(indentUnit)
	w.buf.WriteString("margin=")
	w.buf.WriteString(strconv.Itoa(w.params.ClusterMargin))
	w.buf.WriteString("\n")
	for _, child := range c.Children {
		w.cluster(child, depth+1)
	}
	for _, n := range c.Nodes {
		w.node(n, depth+1)
	}
	w.buf.WriteString(indent)
	w.buf.WriteString("}\n")
}

func (w *writer) node(n *graph.Node, depth int) {
	id := n.ID.String()
	w.buf.WriteString(strings.Repeat(indentUnit, depth))
	w.buf.WriteString(id)
	w.buf.WriteString(" [width=")
	w.buf.WriteString(strconv.FormatFloat(w.params.NodeWidth/graph.UnitsPerInch, 'f', 6, 64))
	w.buf.WriteString(",height=")
	w.buf.WriteString(strconv.FormatFloat(w.params.NodeHeight/graph.UnitsPerInch, 'f', 6, 64))
	w.buf.WriteString(",fixedsize=true,id=")
	w.buf.WriteString(id)
	w.buf.WriteString(",label=")
	w.buf.WriteString(Quote(n.Label()))
	w.buf.WriteString("]\n")
}

// FormatDecimal formats v with at most six fractional digits and at least
// one, using "." as the separator: 1 -> "1.0", 0.5 -> "0.5".
func FormatDecimal(v float64) string {
	v = math.Round(v*1e6) / 1e6
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Quote returns s as a DOT double-quoted string.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
