package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/geardb/internal/core"
)

// columnRequest is the body of add-column calls. Settings are decoded
// according to Type.
type columnRequest struct {
	Name     string          `json:"name"`
	Type     core.TypeTag    `json:"type"`
	Settings json.RawMessage `json:"settings"`
}

// columnPatch changes any of a column's name, type and settings. Sending
// settings without a type replaces the settings of the current type;
// "settings": null clears them.
type columnPatch struct {
	Name     *string         `json:"name"`
	Type     *core.TypeTag   `json:"type"`
	Settings json.RawMessage `json:"settings"`
}

type rowsRequest struct {
	Count int `json:"count"`
}

// cellRequest carries either a typed JSON value or text to be parsed for
// the column, the way a cell editor would.
type cellRequest struct {
	Value json.RawMessage `json:"value"`
	Text  *string         `json:"text"`
}

// columnResponse returns the new column together with the updated sheet.
type columnResponse struct {
	Column core.Column `json:"column"`
	Sheet  core.Sheet  `json:"sheet"`
}

func (req columnRequest) decode() (core.TypeTag, core.Settings, error) {
	settings, err := core.DecodeSettings(req.Type, req.Settings)
	if err != nil {
		return "", nil, err
	}
	return req.Type, settings, nil
}

// handleAddColumn appends a column to the active sheet.
func (s *Server) handleAddColumn(w http.ResponseWriter, r *http.Request) {
	var req columnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tag, settings, err := req.decode()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	col, sheet, err := s.editor.AddColumn(req.Name, tag, settings)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, columnResponse{Column: col, Sheet: sheet})
}

// handleUpdateColumn renames, retypes or reconfigures a column.
func (s *Server) handleUpdateColumn(w http.ResponseWriter, r *http.Request) {
	columnID := chi.URLParam(r, "columnID")

	var req columnPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == nil && req.Type == nil && req.Settings == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	sheet, err := s.editor.UpdateColumn(columnID, core.ColumnUpdate{
		Name:     req.Name,
		Type:     req.Type,
		Settings: req.Settings,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, sheet)
}

// handleDeleteColumn removes a column and its cells.
func (s *Server) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	sheet, err := s.editor.DeleteColumn(chi.URLParam(r, "columnID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, sheet)
}

// handleAddRows appends rows of column defaults. The count defaults to 1.
func (s *Server) handleAddRows(w http.ResponseWriter, r *http.Request) {
	count, ok := decodeCount(w, r)
	if !ok {
		return
	}
	sheet, err := s.editor.AddRows(count)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sheet)
}

// handleDeleteRow removes the row at the given display index.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "row index must be a non-negative integer")
		return
	}
	sheet, err := s.editor.DeleteRow(index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, sheet)
}

// handleSetCell writes one cell of the active sheet.
func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	rowID := chi.URLParam(r, "rowID")
	columnID := chi.URLParam(r, "columnID")

	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		sheet core.Sheet
		err   error
	)
	switch {
	case req.Text != nil:
		sheet, err = s.editor.SetCellText(rowID, columnID, *req.Text)
	case req.Value != nil:
		col, ok := s.editor.Active().Column(columnID)
		if !ok {
			s.fail(w, r, fmt.Errorf("%w: column %s", core.ErrNotFound, columnID))
			return
		}
		v, derr := core.DecodeValue(col.Type, req.Value)
		if derr != nil {
			s.fail(w, r, derr)
			return
		}
		sheet, err = s.editor.SetCell(rowID, columnID, v)
	default:
		writeError(w, http.StatusBadRequest, "either value or text is required")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, sheet)
}

// handleGetNested returns the nested sheet held by a List or
// UniqueProperty cell.
func (s *Server) handleGetNested(w http.ResponseWriter, r *http.Request) {
	nested, err := s.editor.Active().Nested(chi.URLParam(r, "rowID"), chi.URLParam(r, "columnID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, nested)
}

// handleNestedAddColumn adds a column inside a nested cell.
func (s *Server) handleNestedAddColumn(w http.ResponseWriter, r *http.Request) {
	var req columnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tag, settings, err := req.decode()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sheet, err := s.editor.EditNested(chi.URLParam(r, "rowID"), chi.URLParam(r, "columnID"),
		func(n core.Sheet) (core.Sheet, error) {
			next, _, err := n.AddColumn(req.Name, tag, settings)
			return next, err
		})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sheet)
}

// handleNestedAddRows adds rows inside a nested cell.
func (s *Server) handleNestedAddRows(w http.ResponseWriter, r *http.Request) {
	count, ok := decodeCount(w, r)
	if !ok {
		return
	}
	if count > s.cfg.Editor.MaxRowsPerAdd {
		s.fail(w, r, fmt.Errorf("%w: row count must be between 1 and %d", core.ErrInvalidValue, s.cfg.Editor.MaxRowsPerAdd))
		return
	}

	sheet, err := s.editor.EditNested(chi.URLParam(r, "rowID"), chi.URLParam(r, "columnID"),
		func(n core.Sheet) (core.Sheet, error) {
			return n.AddRows(count), nil
		})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sheet)
}

// decodeCount reads an optional {"count": n} body. An empty body means 1.
func decodeCount(w http.ResponseWriter, r *http.Request) (int, bool) {
	req := rowsRequest{Count: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return 0, false
		}
	}
	if req.Count < 1 {
		writeError(w, http.StatusBadRequest, "count must be at least 1")
		return 0, false
	}
	return req.Count, true
}
