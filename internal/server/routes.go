package server

import (
	"context"
	"iter"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/sqltree/internal/nestedset"
	"github.com/leapstack-labs/sqltree/pkg/core"
)

// Tree is the set of tree operations the API exposes.
type Tree interface {
	AddRootNode(ctx context.Context, name string) (int64, error)
	AddChildNode(ctx context.Context, name string, parentID int64) (int64, error)
	AddSiblingNode(ctx context.Context, name string, siblingID int64) (int64, error)
	DeleteSubtree(ctx context.Context, id int64) error
	GetNode(ctx context.Context, id int64) (core.Node, error)
	GetChildren(ctx context.Context, id int64) (iter.Seq2[core.Node, error], error)
	Ancestors(ctx context.Context, id int64) ([]core.Node, error)
	Roots(ctx context.Context) ([]core.Node, error)
	Outline(ctx context.Context) ([]core.OutlineEntry, error)
	Search(ctx context.Context, pattern string) ([]core.SearchHit, error)
	Report(ctx context.Context) (nestedset.Report, error)
}

// SetupRoutes registers the tree API routes.
func SetupRoutes(router chi.Router, tree Tree, logger *slog.Logger) {
	h := NewHandlers(tree, logger)

	router.Route("/api", func(r chi.Router) {
		r.Get("/roots", h.ListRoots)
		r.Post("/roots", h.CreateRoot)

		r.Route("/nodes/{id}", func(r chi.Router) {
			r.Get("/", h.GetNode)
			r.Delete("/", h.DeleteSubtree)
			r.Get("/children", h.ListChildren)
			r.Post("/children", h.CreateChild)
			r.Post("/siblings", h.CreateSibling)
			r.Get("/ancestors", h.ListAncestors)
		})

		r.Get("/outline", h.Outline)
		r.Get("/search", h.Search)
		r.Get("/consistency", h.Consistency)
	})
}
