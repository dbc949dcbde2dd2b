package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sw33tLie/liquifeed/internal/utils"
	"github.com/sw33tLie/liquifeed/pkg/partition"
	"github.com/sw33tLie/liquifeed/pkg/records"
	"github.com/sw33tLie/liquifeed/pkg/storage"
	"github.com/sw33tLie/liquifeed/pkg/upstream"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store unhealthy", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "liquifeed",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"games": s.Games})
}

type tournamentsRequest struct {
	Game  string `json:"game"`
	Force bool   `json:"force"`
}

type tournamentsResponse struct {
	Game      string               `json:"game"`
	FetchedAt time.Time            `json:"fetched_at"`
	Upcoming  []records.Tournament `json:"upcoming"`
	Ongoing   []records.Tournament `json:"ongoing"`
	Completed []records.Tournament `json:"completed"`
}

func (s *Server) handleTournaments(w http.ResponseWriter, r *http.Request) {
	var req tournamentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Game == "" {
		respondError(w, http.StatusBadRequest, "game is required", nil)
		return
	}

	payload, err := s.Coordinator.Ephemeral(r.Context(), records.KindTournaments, req.Game, req.Force)
	if err != nil {
		respondFetchError(w, err)
		return
	}

	grouped := records.GroupTournamentsByStatus(payload.Tournaments)
	respondJSON(w, http.StatusOK, tournamentsResponse{
		Game:      payload.Game,
		FetchedAt: payload.FetchedAt,
		Upcoming:  grouped[records.StatusUpcoming],
		Ongoing:   grouped[records.StatusOngoing],
		Completed: grouped[records.StatusCompleted],
	})
}

type matchesRequest struct {
	Game    string `json:"game"`
	Force   bool   `json:"force"`
	GroupBy string `json:"group_by"`
	Date    string `json:"date"`
}

type matchGroupsResponse struct {
	Game      string            `json:"game"`
	FetchedAt time.Time         `json:"fetched_at"`
	Groups    []partition.Group `json:"groups"`
}

type matchDaysResponse struct {
	Game      string                `json:"game"`
	FetchedAt time.Time             `json:"fetched_at"`
	Days      []partition.DayGroups `json:"days"`
}

// matchesHandler serves both the per-game ticker and the EWC schedule;
// only the fetched kind differs.
func (s *Server) matchesHandler(kind records.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req matchesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		if req.Game == "" {
			respondError(w, http.StatusBadRequest, "game is required", nil)
			return
		}

		var filterDay time.Time
		switch req.GroupBy {
		case "", "group", "day":
		case "date":
			if req.Date == "" {
				respondError(w, http.StatusBadRequest, "date is required when group_by is date", nil)
				return
			}
			day, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
				return
			}
			filterDay = day
		default:
			respondError(w, http.StatusBadRequest, "group_by must be group, day or date", nil)
			return
		}

		payload, err := s.Coordinator.Ephemeral(r.Context(), kind, req.Game, req.Force)
		if err != nil {
			respondFetchError(w, err)
			return
		}

		switch req.GroupBy {
		case "day":
			respondJSON(w, http.StatusOK, matchDaysResponse{
				Game:      payload.Game,
				FetchedAt: payload.FetchedAt,
				Days:      partition.ByDay(payload.Matches),
			})
		case "date":
			respondJSON(w, http.StatusOK, matchGroupsResponse{
				Game:      payload.Game,
				FetchedAt: payload.FetchedAt,
				Groups:    partition.ByDate(payload.Matches, filterDay),
			})
		default:
			respondJSON(w, http.StatusOK, matchGroupsResponse{
				Game:      payload.Game,
				FetchedAt: payload.FetchedAt,
				Groups:    partition.ByGroup(payload.Matches),
			})
		}
	}
}

type teamsRequest struct {
	Game string `json:"game"`
	Live bool   `json:"live"`
}

type teamsResponse struct {
	Game  string            `json:"game"`
	Count int               `json:"count"`
	Teams []storage.TeamRow `json:"teams"`
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	var req teamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Game == "" {
		respondError(w, http.StatusBadRequest, "game is required", nil)
		return
	}

	rows, err := s.Coordinator.Teams(r.Context(), req.Game, req.Live)
	if err != nil {
		respondFetchError(w, err)
		return
	}
	if rows == nil {
		rows = []storage.TeamRow{}
	}
	respondJSON(w, http.StatusOK, teamsResponse{Game: req.Game, Count: len(rows), Teams: rows})
}

type eventsRequest struct {
	Game string `json:"game"`
	Live bool   `json:"live"`
}

type eventsResponse struct {
	Game   string             `json:"game,omitempty"`
	Count  int                `json:"count"`
	Events []storage.EventRow `json:"events"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var req eventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rows, err := s.Coordinator.Events(r.Context(), req.Game, req.Live)
	if err != nil {
		respondFetchError(w, err)
		return
	}
	if rows == nil {
		rows = []storage.EventRow{}
	}
	respondJSON(w, http.StatusOK, eventsResponse{Game: req.Game, Count: len(rows), Events: rows})
}

func (s *Server) handleListNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.NewsFilter{
		Page:     parseIntParam(r, "page", 1),
		PageSize: parseIntParam(r, "page_size", 0),
		Writer:   q.Get("writer"),
		Search:   q.Get("search"),
	}

	page, err := s.Store.ListNews(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list news", err)
		return
	}
	if page.Items == nil {
		page.Items = []records.NewsItem{}
	}
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetNews(w http.ResponseWriter, r *http.Request) {
	item, err := s.Store.GetNews(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNewsNotFound) {
		respondError(w, http.StatusNotFound, "news item not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load news item", err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

type newsRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Writer       string `json:"writer"`
	ThumbnailRef string `json:"thumbnail"`
	NewsLink     string `json:"news_link"`
}

func (s *Server) handleCreateNews(w http.ResponseWriter, r *http.Request) {
	var req newsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	item, err := s.Store.CreateNews(r.Context(), records.NewsItem{
		Title:        req.Title,
		Description:  req.Description,
		Writer:       req.Writer,
		ThumbnailRef: req.ThumbnailRef,
		NewsLink:     req.NewsLink,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create news item", err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateNews(w http.ResponseWriter, r *http.Request) {
	var req newsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	item, err := s.Store.UpdateNews(r.Context(), records.NewsItem{
		ID:           chi.URLParam(r, "id"),
		Title:        req.Title,
		Description:  req.Description,
		Writer:       req.Writer,
		ThumbnailRef: req.ThumbnailRef,
		NewsLink:     req.NewsLink,
	})
	if errors.Is(err, storage.ErrNewsNotFound) {
		respondError(w, http.StatusNotFound, "news item not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update news item", err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteNews(w http.ResponseWriter, r *http.Request) {
	err := s.Store.DeleteNews(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNewsNotFound) {
		respondError(w, http.StatusNotFound, "news item not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete news item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resetRequest struct {
	Cache   bool `json:"cache"`
	Uploads bool `json:"uploads"`
}

type resetResponse struct {
	Tables         storage.ResetResult `json:"tables"`
	CacheDropped   int                 `json:"cache_dropped"`
	UploadsCleared bool                `json:"uploads_cleared"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	tables, err := s.Store.ResetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "reset failed", err)
		return
	}

	resp := resetResponse{Tables: tables}
	if req.Cache && s.Cache != nil {
		resp.CacheDropped = s.Cache.Reset()
	}
	if req.Uploads && s.UploadsDir != "" {
		if err := clearDir(s.UploadsDir); err != nil {
			utils.Log.Warnf("Failed to clear uploads dir %s: %v", s.UploadsDir, err)
		} else {
			resp.UploadsCleared = true
		}
	}

	utils.Log.Infof("Store reset: %d teams, %d events, %d news dropped", tables.Teams, tables.Events, tables.News)
	respondJSON(w, http.StatusOK, resp)
}

// clearDir removes the directory's contents but keeps the directory.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// respondFetchError maps the coordinator's error taxonomy onto HTTP:
// validation to 400, upstream trouble to 502, everything else (store
// writes included) to 500.
func respondFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upstream.ErrUnsupportedGame):
		respondError(w, http.StatusBadRequest, "unsupported game", err)
	case errors.Is(err, upstream.ErrUpstreamUnavailable):
		respondError(w, http.StatusBadGateway, "upstream unavailable", err)
	case errors.Is(err, upstream.ErrMalformedDocument):
		respondError(w, http.StatusBadGateway, "upstream document malformed", err)
	default:
		respondError(w, http.StatusInternalServerError, "request failed", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		utils.Log.Warnf("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		utils.Log.Warnf("%s: %v", message, err)
	}
	respondJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
