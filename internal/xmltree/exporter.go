package xmltree

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strings"

	"github.com/leapstack-labs/sqltree/pkg/core"
	"gopkg.in/yaml.v3"
)

// Format is an export encoding.
type Format string

// Supported export formats.
const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatXML, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (supported: xml, json, yaml)", s)
	}
}

// Source is the read side of the tree the exporter needs.
type Source interface {
	Outline(ctx context.Context) ([]core.OutlineEntry, error)
	GetNode(ctx context.Context, id int64) (core.Node, error)
	GetChildren(ctx context.Context, id int64) (iter.Seq2[core.Node, error], error)
}

// Element is one node of a rebuilt hierarchy.
type Element struct {
	ID       int64      `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	Children []*Element `json:"children,omitempty" yaml:"children,omitempty"`
}

// ExportOptions controls rendering.
type ExportOptions struct {
	// DocumentElement wraps XML output in an element of this name, which
	// makes a forest with several roots a well-formed document.
	DocumentElement string
}

// Exporter renders the forest or one subtree.
type Exporter struct {
	src  Source
	opts ExportOptions
}

// NewExporter creates an exporter reading from src.
func NewExporter(src Source, opts ExportOptions) *Exporter {
	return &Exporter{src: src, opts: opts}
}

// Export writes the subtree rooted at nodeID, or the whole forest when
// nodeID is 0, to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer, format Format, nodeID int64) error {
	forest, err := e.Load(ctx, nodeID)
	if err != nil {
		return err
	}

	switch format {
	case FormatXML:
		return e.writeXML(w, forest)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(forest)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(forest); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// Load rebuilds the hierarchy rooted at nodeID, or the whole forest when
// nodeID is 0.
func (e *Exporter) Load(ctx context.Context, nodeID int64) ([]*Element, error) {
	if nodeID == 0 {
		entries, err := e.src.Outline(ctx)
		if err != nil {
			return nil, err
		}
		nodes := make([]core.Node, len(entries))
		for i, entry := range entries {
			nodes[i] = entry.Node
		}
		return BuildForest(nodes), nil
	}

	root, err := e.src.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	seq, err := e.src.GetChildren(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	nodes := []core.Node{root}
	for n, err := range seq {
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return BuildForest(nodes), nil
}

// BuildForest nests nodes given in preorder by interval containment.
func BuildForest(nodes []core.Node) []*Element {
	type open struct {
		el    *Element
		right int64
	}

	var roots []*Element
	var stack []open
	for _, n := range nodes {
		for len(stack) > 0 && stack[len(stack)-1].right < n.Left {
			stack = stack[:len(stack)-1]
		}
		el := &Element{ID: n.ID, Name: n.Name}
		if len(stack) == 0 {
			roots = append(roots, el)
		} else {
			top := stack[len(stack)-1].el
			top.Children = append(top.Children, el)
		}
		stack = append(stack, open{el: el, right: n.Right})
	}
	return roots
}

var xmlNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

// writeXML writes every node as an element named after it, except a leaf
// whose name is not a valid element name, which is written as text. Text
// that is itself a valid name therefore comes back as an empty element.
func (e *Exporter) writeXML(w io.Writer, forest []*Element) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	var write func(el *Element) error
	write = func(el *Element) error {
		if len(el.Children) == 0 && !xmlNameRe.MatchString(el.Name) {
			return enc.EncodeToken(xml.CharData(el.Name))
		}
		if !xmlNameRe.MatchString(el.Name) {
			return fmt.Errorf("node %d: %q is not a valid element name", el.ID, el.Name)
		}
		start := xml.StartElement{Name: xml.Name{Local: el.Name}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, child := range el.Children {
			if err := write(child); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	}

	var doc xml.StartElement
	if e.opts.DocumentElement != "" {
		doc = xml.StartElement{Name: xml.Name{Local: e.opts.DocumentElement}}
		if err := enc.EncodeToken(doc); err != nil {
			return err
		}
	}
	for _, el := range forest {
		if err := write(el); err != nil {
			return err
		}
	}
	if e.opts.DocumentElement != "" {
		if err := enc.EncodeToken(doc.End()); err != nil {
			return err
		}
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
