package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vealko/tradescope/internal/journal"
	"github.com/vealko/tradescope/pkg/models"
)

// maxImageBytes bounds chart screenshot uploads.
const maxImageBytes = 10 << 20

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := journal.Filter{
		Types:      splitParam(q.Get("type")),
		Results:    splitParam(q.Get("result")),
		Directions: splitParam(q.Get("direction")),
		Symbol:     q.Get("symbol"),
	}
	for _, v := range splitParam(q.Get("tag")) {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.TagIDs = append(f.TagIDs, id)
		}
	}

	trades, err := s.journal.ListTrades(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    trades,
	})
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var trade models.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.journal.CreateTrade(r.Context(), &trade); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    trade,
	})
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := s.journal.GetTrade(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    trade,
	})
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	var trade models.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trade.ID = chi.URLParam(r, "id")

	if err := s.journal.UpdateTrade(r.Context(), &trade); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    trade,
	})
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.journal.DeleteTrade(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"deleted": id},
	})
}

// BulkDeleteRequest is the body for POST /api/v1/trades/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}

	n, err := s.journal.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]int64{"deleted": n},
	})
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.journal.Image(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "kind"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data) //nolint:errcheck
}

// handleSaveImage accepts a multipart upload with an "image" field, or
// a raw body with its Content-Type header as a fallback.
func (s *Server) handleSaveImage(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "id")
	kind := chi.URLParam(r, "kind")

	img := models.TradeImage{Kind: kind}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "image field is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read image")
			return
		}
		img.Data = data
		img.Name = header.Filename
		img.ContentType = header.Header.Get("Content-Type")
	} else {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read image")
			return
		}
		img.Data = data
		img.ContentType = r.Header.Get("Content-Type")
	}

	if err := s.journal.SaveImage(r.Context(), tradeID, img); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    map[string]string{"trade_id": tradeID, "kind": kind},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.journal.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    stats,
	})
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := s.journal.Strategies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if strategies == nil {
		strategies = []models.Strategy{}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    strategies,
	})
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var st models.Strategy
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.journal.CreateStrategy(r.Context(), &st); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    st,
	})
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	st, err := s.journal.GetStrategy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    st,
	})
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.journal.DeleteStrategy(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"deleted": id},
	})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.journal.Tags(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    tags,
	})
}

// writeStoreError maps journal errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, journal.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// splitParam splits a comma-separated query value, dropping empties.
func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
