// Package xmltree moves hierarchies between XML documents and a nested-set
// forest.
//
// The importer streams tokens and drives the tree through its public add
// operations, keeping its own stack of open element ids. The exporter
// rebuilds the hierarchy from preorder rows and renders it as XML, JSON or
// YAML.
package xmltree

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Builder is the part of the tree the importer writes through.
type Builder interface {
	AddRootNode(ctx context.Context, name string) (int64, error)
	AddChildNode(ctx context.Context, name string, parentID int64) (int64, error)
}

// ImportOptions controls how a document is mapped onto the forest.
type ImportOptions struct {
	// SkipDocumentElement drops the outermost element so that its children
	// become roots.
	SkipDocumentElement bool
}

// ImportStats summarises one import.
type ImportStats struct {
	Roots    int `json:"roots"`
	Elements int `json:"elements"`
	Texts    int `json:"texts"`
}

// Nodes returns the total number of nodes created.
func (s ImportStats) Nodes() int {
	return s.Elements + s.Texts
}

// Importer loads XML documents into a tree.
type Importer struct {
	tree   Builder
	opts   ImportOptions
	logger *slog.Logger
}

// NewImporter creates an importer writing into tree. A nil logger discards
// output.
func NewImporter(tree Builder, opts ImportOptions, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{tree: tree, opts: opts, logger: logger}
}

// Import reads one document from r. Every element becomes a node named
// after its local name; the character data between two element tags
// becomes one leaf child holding the trimmed text, unless it is blank.
// Nodes created before a failure are kept, since each add is its own
// transaction.
func (im *Importer) Import(ctx context.Context, r io.Reader) (ImportStats, error) {
	var stats ImportStats
	logger := im.logger.With(slog.String("import_id", uuid.NewString()))
	logger.Debug("import started", slog.Bool("skip_document_element", im.opts.SkipDocumentElement))

	dec := xml.NewDecoder(r)
	// parents holds the id of each open element; 0 marks a skipped one.
	var parents []int64
	seenDocument := false

	parent := func() int64 {
		if len(parents) == 0 {
			return 0
		}
		return parents[len(parents)-1]
	}

	add := func(name string) (int64, error) {
		if p := parent(); p != 0 {
			return im.tree.AddChildNode(ctx, name, p)
		}
		stats.Roots++
		return im.tree.AddRootNode(ctx, name)
	}

	// Character data is buffered until the next element boundary so that
	// text split by CDATA sections, comments or entities makes one leaf.
	var text strings.Builder
	flush := func() error {
		content := strings.TrimSpace(text.String())
		text.Reset()
		if content == "" {
			return nil
		}
		if _, err := add(content); err != nil {
			return fmt.Errorf("failed to add text %q: %w", content, err)
		}
		stats.Texts++
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if err := flush(); err != nil {
				return stats, err
			}
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read XML at offset %d: %w", dec.InputOffset(), err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := flush(); err != nil {
				return stats, err
			}
			if !seenDocument {
				seenDocument = true
				if im.opts.SkipDocumentElement {
					parents = append(parents, 0)
					continue
				}
			}
			id, err := add(t.Name.Local)
			if err != nil {
				return stats, fmt.Errorf("failed to add element <%s>: %w", t.Name.Local, err)
			}
			stats.Elements++
			parents = append(parents, id)

		case xml.EndElement:
			if err := flush(); err != nil {
				return stats, err
			}
			parents = parents[:len(parents)-1]

		case xml.CharData:
			text.Write(t)
		}
	}

	logger.Debug("import finished",
		slog.Int("roots", stats.Roots),
		slog.Int("elements", stats.Elements),
		slog.Int("texts", stats.Texts))

	return stats, nil
}
