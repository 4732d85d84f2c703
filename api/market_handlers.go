package api

import (
	"net/http"
	"strconv"
)

// refreshParam reads the ?refresh= query flag.
func refreshParam(r *http.Request) bool {
	switch r.URL.Query().Get("refresh") {
	case "1", "true", "yes":
		return true
	}
	return false
}

// handleNews serves scraped forex news. Upstream failures come back as
// an error message inside a 200 payload so the page keeps rendering.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	res := s.market.GetNews(r.Context(), refreshParam(r))
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    res,
	})
}

// handleHeadlines serves aggregated RSS market headlines.
func (s *Server) handleHeadlines(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	res := s.market.GetHeadlines(r.Context(), limit)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    res,
	})
}

// handleCalendar serves the grouped economic calendar, soft-fail like news.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	res := s.market.GetCalendar(r.Context(), refreshParam(r))
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    res,
	})
}

// handleCandles serves klines. Interval and limit are normalized rather
// than validated; an upstream failure maps to a generic 502 so exchange
// error detail never reaches the client.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := q.Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	candles, err := s.market.GetCandles(r.Context(), symbol, q.Get("interval"), q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadGateway, "market data temporarily unavailable")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    candles,
	})
}
