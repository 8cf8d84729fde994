package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pbellmann/textgraph"
	"github.com/pbellmann/textgraph/render"
)

// generateTimeout caps a single extraction call end to end.
const generateTimeout = 5 * time.Minute

type handler struct {
	engine    textgraph.Engine
	charLimit int
}

func newHandler(e textgraph.Engine, charLimit int) *handler {
	if charLimit <= 0 {
		charLimit = textgraph.DefaultCharLimit
	}
	return &handler{engine: e, charLimit: charLimit}
}

// GET /
func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{CharLimit: h.charLimit}); err != nil {
		slog.Error("rendering index", "error", err)
	}
}

// POST /api/generate
func (h *handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	var req struct {
		Text              string   `json:"text"`
		EntityTypes       []string `json:"entity_types,omitempty"`
		RelationshipTypes []string `json:"relationship_types,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	opts := typeOptions(req.EntityTypes, req.RelationshipTypes)
	result, err := h.engine.Generate(ctx, req.Text, opts...)
	if err != nil {
		h.writeEngineError(w, err, "generate")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /api/upload
// Multipart upload: file plus optional skip_start/skip_end unit counts and
// comma-separated entity_types/relationship_types fields.
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	if err := r.ParseMultipartForm(100 << 20); err != nil { // 100MB max
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	// Keep only the client filename's extension: format dispatch needs it,
	// and a random temp name keeps concurrent uploads of the same filename
	// from clobbering each other.
	ext := strings.ToLower(filepath.Ext(filepath.Base(header.Filename)))
	dst, err := os.CreateTemp("", "textgraph-upload-*"+ext)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process file")
		slog.Error("creating temp file", "error", err)
		return
	}
	tmpPath := dst.Name()
	defer os.Remove(tmpPath)
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "failed to save file")
		slog.Error("saving uploaded file", "error", err)
		return
	}
	dst.Close()

	opts := typeOptions(
		splitTypes(r.FormValue("entity_types")),
		splitTypes(r.FormValue("relationship_types")),
	)
	skipStart, _ := strconv.Atoi(r.FormValue("skip_start"))
	skipEnd, _ := strconv.Atoi(r.FormValue("skip_end"))
	if skipStart > 0 || skipEnd > 0 {
		opts = append(opts, textgraph.WithSkipUnits(skipStart, skipEnd))
	}

	result, err := h.engine.GenerateFromFile(ctx, tmpPath, opts...)
	if err != nil {
		h.writeEngineError(w, err, "upload")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /api/graphs
func (h *handler) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := h.engine.ListGraphs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list graphs")
		slog.Error("list graphs error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"graphs": graphs,
	})
}

// GET /api/graphs/{id}
func (h *handler) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.savedGraph(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DELETE /api/graphs/{id}
func (h *handler) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.engine.DeleteGraph(r.Context(), id); err != nil {
		h.writeEngineError(w, err, "delete")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /graphs/{id}/view
func (h *handler) handleViewGraph(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.savedGraph(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.HTML(w, saved.Graph, saved.Title); err != nil {
		slog.Error("rendering graph view", "graph_id", saved.ID, "error", err)
	}
}

// GET /graphs/{id}/nodes.csv
func (h *handler) handleNodesCSV(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.savedGraph(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="knowledge_graph_nodes.csv"`)
	if err := render.WriteNodesCSV(w, saved.Graph); err != nil {
		slog.Error("writing nodes csv", "graph_id", saved.ID, "error", err)
	}
}

// GET /graphs/{id}/relationships.csv
func (h *handler) handleRelationshipsCSV(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.savedGraph(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="knowledge_graph_relationships.csv"`)
	if err := render.WriteRelationshipsCSV(w, saved.Graph); err != nil {
		slog.Error("writing relationships csv", "graph_id", saved.ID, "error", err)
	}
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// savedGraph loads the graph named by the {id} path value, writing the
// error response itself when loading fails.
func (h *handler) savedGraph(w http.ResponseWriter, r *http.Request) (*textgraph.SavedGraph, bool) {
	id := r.PathValue("id")
	saved, err := h.engine.GetGraph(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err, "load graph")
		return nil, false
	}
	return saved, true
}

// writeEngineError maps engine sentinel errors to HTTP statuses.
func (h *handler) writeEngineError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, textgraph.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "text is required")
	case errors.Is(err, textgraph.ErrGraphNotFound):
		writeError(w, http.StatusNotFound, "graph not found")
	case errors.Is(err, textgraph.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported file format")
	case errors.Is(err, textgraph.ErrParsingFailed):
		writeError(w, http.StatusUnprocessableEntity, "could not extract text from file")
		slog.Error(op+" error", "error", err)
	default:
		writeError(w, http.StatusInternalServerError, op+" failed")
		slog.Error(op+" error", "error", err)
	}
}

// splitTypes turns the UI's comma-separated type list into a slice.
func splitTypes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	types := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			types = append(types, p)
		}
	}
	return types
}

func typeOptions(entityTypes, relationshipTypes []string) []textgraph.GenerateOption {
	var opts []textgraph.GenerateOption
	if len(entityTypes) > 0 {
		opts = append(opts, textgraph.WithEntityTypes(entityTypes...))
	}
	if len(relationshipTypes) > 0 {
		opts = append(opts, textgraph.WithRelationshipTypes(relationshipTypes...))
	}
	return opts
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%s", msg)})
}
