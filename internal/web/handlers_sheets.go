package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/geardb/internal/core"
	"github.com/JonMunkholm/geardb/internal/web/templates"
)

// typeInfo describes one column type for clients building a type picker.
type typeInfo struct {
	Tag         core.TypeTag `json:"tag"`
	Label       string       `json:"label"`
	HasSettings bool         `json:"hasSettings"`
	Nested      bool         `json:"nested"`
	Default     core.Value   `json:"default"`
}

// statusResponse is the editor status plus job slot usage.
type statusResponse struct {
	core.Status
	Jobs core.JobLimiterStatus `json:"jobs"`
}

// nameRequest is the body of create and rename calls.
type nameRequest struct {
	Name string `json:"name"`
}

// handlePreview renders the workbook as an HTML page. ?sheet=<id> shows
// another sheet without activating it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sheet := s.editor.Active()
	if id := r.URL.Query().Get("sheet"); id != "" && id != sheet.ID {
		other, err := s.editor.Sheet(id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		sheet = other
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.PreviewPage(templates.PreviewParams{
		Status: s.editor.Status(),
		Tabs:   s.editor.Sheets(),
		Sheet:  sheet,
	}).Render(r.Context(), w); err != nil {
		s.fail(w, r, fmt.Errorf("render preview: %w", err))
	}
}

// handleListTypes returns the type catalog in registry order.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	descs := core.Types()
	out := make([]typeInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, typeInfo{
			Tag:         d.Tag,
			Label:       d.Label,
			HasSettings: d.HasSettings,
			Nested:      d.Tag.IsNested(),
			Default:     d.Default(),
		})
	}
	writeJSON(w, out)
}

// handleStatus reports the open file, dirty state and job usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusResponse{
		Status: s.editor.Status(),
		Jobs:   s.jobs.Status(),
	})
}

// handleListSheets returns the tab strip.
func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.editor.Sheets())
}

// handleCreateSheet adds a sheet and makes it active.
func (s *Server) handleCreateSheet(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sheet, err := s.editor.CreateSheet(req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sheets/"+sheet.ID)
	writeJSONStatus(w, http.StatusCreated, sheet)
}

// handleGetSheet returns one sheet, including the working copy if active.
func (s *Server) handleGetSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := s.editor.Sheet(chi.URLParam(r, "sheetID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, sheet)
}

// handleRenameSheet changes a sheet's display name.
func (s *Server) handleRenameSheet(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sheet, err := s.editor.RenameSheet(chi.URLParam(r, "sheetID"), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, sheet)
}

// handleDeleteSheet removes a sheet and returns the new active sheet.
func (s *Server) handleDeleteSheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sheetID")
	active, ok := s.editor.DeleteSheet(id)
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: sheet %s", core.ErrNotFound, id))
		return
	}
	writeJSON(w, active)
}

// handleActivateSheet switches the working sheet.
func (s *Server) handleActivateSheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sheetID")
	active, ok := s.editor.SwitchSheet(id)
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: sheet %s", core.ErrNotFound, id))
		return
	}
	writeJSON(w, active)
}

// handleActiveSheet returns the working sheet, or the empty sentinel.
func (s *Server) handleActiveSheet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.editor.Active())
}
