package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/forgo/ascend/api/internal/model"
	"github.com/forgo/ascend/api/internal/service"
)

// CatalogReader exposes the redacted catalog
type CatalogReader interface {
	Public() service.PublicCatalog
}

// LeaderboardReader serves cached leaderboards
type LeaderboardReader interface {
	Segments() []model.LeaderboardSegment
	GetBoard(ctx context.Context, segment model.SegmentID, now time.Time) (*model.Leaderboard, error)
}

// CatalogHandler handles catalog and leaderboard reads
type CatalogHandler struct {
	catalog CatalogReader
	boards  LeaderboardReader
	now     func() time.Time
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog CatalogReader, boards LeaderboardReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, boards: boards, now: time.Now}
}

// RegisterRoutes registers catalog and leaderboard routes
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/catalog", h.GetCatalog)
	mux.HandleFunc("GET /v1/leaderboards", h.ListSegments)
	mux.HandleFunc("GET /v1/leaderboards/{segment}", h.GetBoard)
}

// GetCatalog handles GET /v1/catalog. Hidden badges are redacted.
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, h.catalog.Public(), nil)
}

// ListSegments handles GET /v1/leaderboards
func (h *CatalogHandler) ListSegments(w http.ResponseWriter, r *http.Request) {
	segments := h.boards.Segments()

	links := make(map[string]string, len(segments))
	for _, s := range segments {
		links[string(s.ID)] = "/v1/leaderboards/" + string(s.ID)
	}
	WriteCollection(w, http.StatusOK, segments, nil, links)
}

// GetBoard handles GET /v1/leaderboards/{segment}
func (h *CatalogHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	segment := model.SegmentID(r.PathValue("segment"))

	board, err := h.boards.GetBoard(r.Context(), segment, h.now())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get leaderboard"))
		return
	}

	WriteData(w, http.StatusOK, board, nil)
}
