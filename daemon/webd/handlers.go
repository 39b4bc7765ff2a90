package webd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/rotblauer/catfog/archive"
	"github.com/rotblauer/catfog/common"
	"github.com/rotblauer/catfog/params"
)

// maxImportBytes bounds an uploaded snapshot zip.
const maxImportBytes = 256 << 20

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (s *WebDaemon) writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
	Rasters   int                     `json:"rasters"`
	PNGs      int                     `json:"pngs"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Config:    s.Config,
		Rasters:   s.Store.CacheLen(),
		PNGs:      s.pngCache.Len(),
	}
	if s.melodyInstance != nil {
		st.WSOpen = !s.melodyInstance.IsClosed()
		st.WSConns = s.melodyInstance.Len()
	}
	s.writeJSON(w, st)
}

type fogStats struct {
	Tiles    int            `json:"tiles"`
	Visited  int            `json:"visited"`
	Human    string         `json:"visited_human"`
	Regions  map[string]int `json:"regions"`
	Bound    orb.Bound      `json:"bound"`
	CanUndo  bool           `json:"can_undo"`
	CanRedo  bool           `json:"can_redo"`
	Snapshot string         `json:"snapshot,omitempty"`
}

func (s *WebDaemon) stats() fogStats {
	m := s.Store.Current()
	st := fogStats{
		Tiles:   m.Len(),
		Visited: m.Count(),
		Human:   humanize.Comma(int64(m.Count())) + " px",
		Regions: m.RegionCounts(),
		Bound:   m.Bound(),
		CanUndo: s.Store.CanUndo(),
		CanRedo: s.Store.CanRedo(),
	}
	if s.DB != nil {
		st.Snapshot = params.SnapshotDBPath(s.Config.DataDir)
	}
	return st
}

func (s *WebDaemon) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.stats())
}

// handleTile renders the fog overlay of one slippy-map tile as a PNG.
func (s *WebDaemon) handleTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	z, errZ := strconv.Atoi(vars["z"])
	x, errX := strconv.ParseUint(vars["x"], 10, 32)
	y, errY := strconv.ParseUint(vars["y"], 10, 32)
	if errZ != nil || errX != nil || errY != nil || z != common.ClampZoom(z) {
		http.Error(w, "Bad tile", http.StatusBadRequest)
		return
	}
	if n := uint64(1) << uint(z); x >= n || y >= n {
		http.Error(w, "Tile outside world", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")

	gen := s.Store.Generation()
	etag := fmt.Sprintf(`"%x-%d"`, s.started.Unix(), gen)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	key := fmt.Sprintf("%d/%d/%d@%d", z, x, y, gen)
	if item := s.pngCache.Get(key); item != nil {
		_, _ = w.Write(item.Value())
		return
	}
	var buf bytes.Buffer
	raster := s.Store.Raster(maptile.New(uint32(x), uint32(y), maptile.Zoom(z)))
	if err := raster.EncodePNG(&buf, s.Store.Config().Compositor.FogColor); err != nil {
		s.logger.Error("Failed to encode tile", "error", err)
		http.Error(w, "Failed to encode tile", http.StatusInternalServerError)
		return
	}
	s.pngCache.Set(key, buf.Bytes(), ttlcache.DefaultTTL)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("Failed to write tile", "error", err)
	}
}

// handleImport merges the tiles of an uploaded snapshot zip.
func (s *WebDaemon) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	blobs, err := archive.ReadZipBytes(body)
	if err != nil {
		s.logger.Warn("Failed to read upload", "error", err)
		http.Error(w, "Failed to read zip", http.StatusUnprocessableEntity)
		return
	}
	report := s.Store.Import(blobs)
	failed := make(map[string]string, len(report.Failed))
	for _, f := range report.Failed {
		failed[f.Name] = f.Err.Error()
	}
	s.writeJSON(w, map[string]any{
		"imported": report.Imported,
		"failed":   failed,
	})
}

type eraseRequest struct {
	// Bbox is [west, south, east, north].
	Bbox [4]float64 `json:"bbox"`
}

type drawRequest struct {
	From [2]float64 `json:"from"`
	To   [2]float64 `json:"to"`
}

type editResponse struct {
	Changed bool      `json:"changed"`
	Region  orb.Bound `json:"region"`
	CanUndo bool      `json:"can_undo"`
	CanRedo bool      `json:"can_redo"`
}

func (s *WebDaemon) editResponse(changed bool, region orb.Bound) editResponse {
	return editResponse{
		Changed: changed,
		Region:  region,
		CanUndo: s.Store.CanUndo(),
		CanRedo: s.Store.CanRedo(),
	}
}

func (s *WebDaemon) handleErase(w http.ResponseWriter, r *http.Request) {
	var req eraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode", http.StatusUnprocessableEntity)
		return
	}
	b := orb.Bound{
		Min: orb.Point{req.Bbox[0], req.Bbox[1]},
		Max: orb.Point{req.Bbox[2], req.Bbox[3]},
	}
	changed, err := s.Store.ClearBbox(b)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, s.editResponse(changed, b))
}

func (s *WebDaemon) handleDraw(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode", http.StatusUnprocessableEntity)
		return
	}
	changed, err := s.Store.AddLine(req.From[0], req.From[1], req.To[0], req.To[1])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	region := orb.MultiPoint{req.From, req.To}.Bound()
	s.writeJSON(w, s.editResponse(changed, region))
}

func (s *WebDaemon) handleUndo(w http.ResponseWriter, r *http.Request) {
	region, ok := s.Store.Undo()
	s.writeJSON(w, s.editResponse(ok, region))
}

func (s *WebDaemon) handleRedo(w http.ResponseWriter, r *http.Request) {
	region, ok := s.Store.Redo()
	s.writeJSON(w, s.editResponse(ok, region))
}
