package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/receipt"
	"financas/internal/suggest"
)

const maxReceiptUpload = 16 << 20

type suggestRequest struct {
	Text string `json:"text"`
}

type suggestResponse struct {
	Suggestion *suggest.Suggestion `json:"suggestion"`
}

// handleSuggest turns free text into a draft expense. The result is
// advisory: call failures degrade to an empty suggestion rather than an
// error, only a missing API key is surfaced as unavailable.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeJSON(r, &req, maxJSONBody); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request payload")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text must not be empty")
		return
	}

	categories, err := s.allCategories(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category list failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load categories")
		return
	}

	today := s.now().Format(core.DateLayout)
	suggestion, err := s.suggester.Suggest(r.Context(), req.Text, categories, today)
	if err != nil {
		if errors.Is(err, suggest.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "suggestions are not configured")
			return
		}
		s.logger.WarnContext(r.Context(), "Suggestion call failed",
			applog.FieldError, err, applog.FieldOperation, applog.OpParse)
		writeJSON(w, http.StatusOK, suggestResponse{Suggestion: nil})
		return
	}

	writeJSON(w, http.StatusOK, suggestResponse{Suggestion: &suggestion})
}

type receiptResponse struct {
	ReceiptImage string `json:"receiptImage"`
}

// handleReceipt normalizes an uploaded receipt photo into the compact
// data URL stored on the expense record.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxReceiptUpload); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart image upload")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxReceiptUpload))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	token := s.receipts.Start()
	dataURL, err := s.receipts.Normalize(r.Context(), token, data)
	if err != nil {
		switch {
		case errors.Is(err, receipt.ErrNotAnImage):
			writeError(w, http.StatusUnprocessableEntity, "file is not a decodable image")
		case errors.Is(err, receipt.ErrSuperseded):
			writeError(w, http.StatusConflict, "a newer upload replaced this one")
		default:
			s.logger.ErrorContext(r.Context(), "Receipt normalization failed", applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, "could not process image")
		}
		return
	}

	writeJSON(w, http.StatusOK, receiptResponse{ReceiptImage: dataURL})
}
