package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/sqltree/internal/nestedset"
	"github.com/leapstack-labs/sqltree/pkg/core"
)

// Handlers implements the API endpoints.
type Handlers struct {
	tree   Tree
	logger *slog.Logger
}

// NewHandlers creates handlers over tree. A nil logger discards output.
func NewHandlers(tree Tree, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{tree: tree, logger: logger}
}

type nameRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ConsistencyResponse is the body of GET /api/consistency.
type ConsistencyResponse struct {
	Nodes              int64            `json:"nodes"`
	GloballyConsistent bool             `json:"globally_consistent"`
	FullyConsistent    bool             `json:"fully_consistent"`
	Violations         []core.Violation `json:"violations,omitempty"`
}

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// CreateRoot handles POST /api/roots.
func (h *Handlers) CreateRoot(w http.ResponseWriter, r *http.Request) {
	name, err := decodeName(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.tree.AddRootNode(r.Context(), name)
	h.writeCreated(w, r, id, err)
}

// CreateChild handles POST /api/nodes/{id}/children.
func (h *Handlers) CreateChild(w http.ResponseWriter, r *http.Request) {
	parentID, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	name, err := decodeName(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.tree.AddChildNode(r.Context(), name, parentID)
	h.writeCreated(w, r, id, err)
}

// CreateSibling handles POST /api/nodes/{id}/siblings.
func (h *Handlers) CreateSibling(w http.ResponseWriter, r *http.Request) {
	siblingID, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	name, err := decodeName(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.tree.AddSiblingNode(r.Context(), name, siblingID)
	h.writeCreated(w, r, id, err)
}

// GetNode handles GET /api/nodes/{id}.
func (h *Handlers) GetNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	node, err := h.tree.GetNode(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// DeleteSubtree handles DELETE /api/nodes/{id}.
func (h *Handlers) DeleteSubtree(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.tree.DeleteSubtree(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListChildren handles GET /api/nodes/{id}/children.
func (h *Handlers) ListChildren(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	seq, err := h.tree.GetChildren(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	nodes := []core.Node{}
	for n, err := range seq {
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		nodes = append(nodes, n)
	}
	writeJSON(w, http.StatusOK, nodes)
}

// ListAncestors handles GET /api/nodes/{id}/ancestors.
func (h *Handlers) ListAncestors(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	nodes, err := h.tree.Ancestors(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(nodes))
}

// ListRoots handles GET /api/roots.
func (h *Handlers) ListRoots(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.tree.Roots(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(nodes))
}

// Outline handles GET /api/outline.
func (h *Handlers) Outline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.tree.Outline(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(entries))
}

// Search handles GET /api/search?q=.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.writeError(w, r, badRequest("query parameter q is required"))
		return
	}
	hits, err := h.tree.Search(r.Context(), nestedset.SubstringPattern(q))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(hits))
}

// Consistency handles GET /api/consistency. Every figure in the response
// comes from the same snapshot.
func (h *Handlers) Consistency(w http.ResponseWriter, r *http.Request) {
	rep, err := h.tree.Report(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ConsistencyResponse{
		Nodes:              rep.Nodes,
		GloballyConsistent: rep.GloballyConsistent,
		FullyConsistent:    rep.FullyConsistent(),
		Violations:         rep.Violations,
	})
}

func (h *Handlers) writeCreated(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	node, err := h.tree.GetNode(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/nodes/%d", id))
	writeJSON(w, http.StatusCreated, node)
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var bad *badRequestError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &bad):
		status = http.StatusBadRequest
	default:
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid node id %q", raw)
	}
	return id, nil
}

func decodeName(w http.ResponseWriter, r *http.Request) (string, error) {
	var req nameRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return "", badRequest("invalid request body: %v", err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", badRequest("name is required")
	}
	return req.Name, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
