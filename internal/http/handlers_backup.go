package http

import (
	"io"
	"net/http"

	"financas/internal/backup"
	applog "financas/internal/log"
)

const maxBackupBody = 32 << 20 // full state incl. receipt images

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := backup.Export(r.Context(), s.store)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Backup export failed",
			applog.FieldError, err, applog.FieldOperation, applog.OpExport)
		writeError(w, http.StatusInternalServerError, "could not export backup")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+backup.Filename(s.now())+`"`)
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "backup file too large")
		return
	}

	if err := backup.Import(r.Context(), s.store, raw); err != nil {
		s.logger.WarnContext(r.Context(), "Backup import rejected",
			applog.FieldError, err, applog.FieldOperation, applog.OpImport)
		writeError(w, http.StatusBadRequest, "not a valid backup document")
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}
