package web

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/geardb/internal/core"
	"github.com/JonMunkholm/geardb/internal/export"
	"github.com/JonMunkholm/geardb/internal/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// importResponse reports how many rows a CSV import appended.
type importResponse struct {
	Added int        `json:"added"`
	Sheet core.Sheet `json:"sheet"`
}

// acquireJob takes a job slot or responds with 503.
func (s *Server) acquireJob(w http.ResponseWriter, r *http.Request) bool {
	if err := s.jobs.Acquire(r.Context()); err != nil {
		s.fail(w, r, err)
		return false
	}
	return true
}

// handleImportCSV appends the records of an uploaded CSV file to the
// active sheet. The file may be sent as multipart field "file" or as the
// raw request body. Nothing is applied if any cell is rejected.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Jobs.MaxImportSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	var src io.Reader = r.Body
	filename := "body"
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			writeError(w, http.StatusBadRequest, "file too large or invalid form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "no file provided")
			return
		}
		defer file.Close()
		src, filename = file, header.Filename
	}

	if !s.acquireJob(w, r) {
		return
	}
	defer s.jobs.Release()

	logger := logging.WithFields(r.Context(), "job", "csv_import", "file", filename)
	start := time.Now()

	sheet, added, err := s.editor.ImportCSV(src)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	logger.Info("csv imported",
		"sheet_id", sheet.ID,
		"rows", added,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, importResponse{Added: added, Sheet: sheet})
}

// handleExportCSV writes the active sheet as CSV with formatted values.
// Nested cells are written as their summary text.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	sheet := s.editor.Active()
	if sheet.IsEmpty() {
		s.fail(w, r, core.ErrNoActiveSheet)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(sheet.Name, "csv")))

	csvWriter := csv.NewWriter(w)

	header := make([]string, len(sheet.Columns))
	for i, c := range sheet.Columns {
		header[i] = c.Name
	}
	csvWriter.Write(header)

	for _, row := range sheet.Rows {
		record := make([]string, len(sheet.Columns))
		for i, c := range sheet.Columns {
			record[i] = core.FormatValue(row.Cells[c.ID])
		}
		csvWriter.Write(record)
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		logging.FromContext(r.Context()).Error("csv export failed", "error", err)
	}
}

// handleExportXLSX writes the active sheet, or every sheet with ?all=1,
// as an XLSX workbook.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var (
		sheets []core.Sheet
		name   string
	)
	if r.URL.Query().Get("all") != "" {
		data := s.editor.SaveData()
		sheets, name = data.Sheets, "workbook"
	} else {
		active := s.editor.Active()
		if active.IsEmpty() {
			s.fail(w, r, core.ErrNoActiveSheet)
			return
		}
		sheets, name = []core.Sheet{active}, active.Name
	}

	if !s.acquireJob(w, r) {
		return
	}
	defer s.jobs.Release()

	// Buffer so a failed export can still get an error status.
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sheets...); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(name, "xlsx")))
	w.Write(buf.Bytes())
}

// handleGetSaveData returns the document Save would write.
func (s *Server) handleGetSaveData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.editor.SaveData())
}

// handlePutSaveData replaces the workbook with an uploaded save document.
func (s *Server) handlePutSaveData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Jobs.MaxImportSize)
	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "save data too large or unreadable")
		return
	}
	data, err := core.DecodeSaveData(b)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, s.editor.Load(data))
}

// handleNewWorkbook discards the workbook and starts an empty one.
func (s *Server) handleNewWorkbook(w http.ResponseWriter, r *http.Request) {
	s.editor.Reset()
	writeJSON(w, s.editor.Status())
}

// handleListFiles lists the save files in the configured store.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	files, err := s.store.ListSaveFiles(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, files)
}

// handleSaveFile writes the workbook to the store under {name}.
func (s *Server) handleSaveFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	if err := s.editor.Save(ctx, s.store, chi.URLParam(r, "name")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, s.editor.Status())
}

// handleOpenFile replaces the workbook with save file {name}.
func (s *Server) handleOpenFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	active, err := s.editor.Open(ctx, s.store, chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, active)
}

// exportFilename builds a download name with a timestamp.
func exportFilename(name, ext string) string {
	safe := []rune(name)
	for i, r := range safe {
		if r == '"' || r == '/' || r == '\\' || r < 0x20 {
			safe[i] = '_'
		}
	}
	return fmt.Sprintf("%s_%s.%s", string(safe), time.Now().Format("20060102_150405"), ext)
}
