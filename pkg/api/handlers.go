package api

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/james-see/fractune/internal/logger"
	"github.com/james-see/fractune/pkg/converter"
	"github.com/james-see/fractune/pkg/engine"
	"github.com/james-see/fractune/pkg/store"
)

// GenerateRequest is the body of the generation endpoints. Params accepts
// nested ({"fractal": {"chaos": 0.5}}) or dotted ({"fractal.chaos": 0.5}) keys.
type GenerateRequest struct {
	Seed   *int64         `json:"seed,omitempty"`
	Params map[string]any `json:"params"`
}

// GenerateResponse carries the seed actually used so a result can be replayed
type GenerateResponse struct {
	Seed        int64               `json:"seed"`
	Composition *engine.Composition `json:"composition"`
}

// CreateCompositionRequest generates and saves a composition
type CreateCompositionRequest struct {
	Title  string         `json:"title"`
	Seed   *int64         `json:"seed,omitempty"`
	Params map[string]any `json:"params"`
}

// ScaleInfo describes one scale
type ScaleInfo struct {
	ID        engine.ScaleID `json:"id"`
	Intervals []int          `json:"intervals"`
}

// InstrumentInfo maps an instrument name to its General MIDI program
type InstrumentInfo struct {
	Name    string `json:"name"`
	Program int    `json:"program"`
}

// bindOptionalJSON binds the body, treating an empty body as an empty request
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) seed(requested *int64) int64 {
	if requested != nil {
		return *requested
	}
	if s.cfg.DefaultSeed != 0 {
		return s.cfg.DefaultSeed
	}
	return rand.Int64()
}

func (s *Server) compose(c *gin.Context, seed *int64, params map[string]any) (*engine.Composition, int64, error) {
	used := s.seed(seed)
	start := time.Now()
	comp, err := s.engine.GenerateRaw(params, used)
	if err != nil {
		return nil, used, err
	}

	counts := make(map[string]int, len(engine.Tracks))
	for t, n := range comp.Counts() {
		counts[string(t)] = n
	}
	logger.LogGeneration(c.Request.Context(), used, time.Since(start), counts, logger.WithContext(c))
	return comp, used, nil
}

func (s *Server) sendMIDI(c *gin.Context, comp *engine.Composition, name string) {
	data, err := s.conv.Encode(comp, converter.FormatMIDI)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.mid", name))
	c.Data(http.StatusOK, "audio/midi", data)
}

// listScales godoc
// @Summary List scales
// @Description Returns every scale with its semitone intervals
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]ScaleInfo
// @Router /api/v1/scales [get]
func (s *Server) listScales(c *gin.Context) {
	cfg := s.engine.Config()
	scales := make([]ScaleInfo, 0)
	for _, id := range cfg.ScaleIDs() {
		intervals, _ := cfg.Scale(id)
		scales = append(scales, ScaleInfo{ID: id, Intervals: intervals})
	}
	c.JSON(http.StatusOK, gin.H{"scales": scales})
}

// listInstruments godoc
// @Summary List instruments
// @Description Returns the instrument names accepted in place of program numbers
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]InstrumentInfo
// @Router /api/v1/instruments [get]
func (s *Server) listInstruments(c *gin.Context) {
	cfg := s.engine.Config()
	instruments := make([]InstrumentInfo, 0)
	for _, name := range cfg.InstrumentNames() {
		program, _ := cfg.Program(name)
		instruments = append(instruments, InstrumentInfo{Name: name, Program: program})
	}
	c.JSON(http.StatusOK, gin.H{"instruments": instruments})
}

// defaults godoc
// @Summary Default parameters
// @Description Returns the parameter record used for omitted fields
// @Tags info
// @Produce json
// @Success 200 {object} engine.Parameters
// @Router /api/v1/defaults [get]
func (s *Server) defaults(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Config().Defaults())
}

// generate godoc
// @Summary Generate a composition
// @Description Validates the parameters and returns the scheduled note events
// @Tags generate
// @Accept json
// @Produce json
// @Param request body GenerateRequest false "Seed and parameters"
// @Success 200 {object} GenerateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/generate [post]
func (s *Server) generate(c *gin.Context) {
	var req GenerateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	comp, seed, err := s.compose(c, req.Seed, req.Params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{Seed: seed, Composition: comp})
}

// generateMIDI godoc
// @Summary Generate a MIDI file
// @Description Generates a composition and returns it as a Standard MIDI File
// @Tags generate
// @Accept json
// @Produce audio/midi
// @Param request body GenerateRequest false "Seed and parameters"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/generate/midi [post]
func (s *Server) generateMIDI(c *gin.Context) {
	var req GenerateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	comp, seed, err := s.compose(c, req.Seed, req.Params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("X-Seed", strconv.FormatInt(seed, 10))
	s.sendMIDI(c, comp, fmt.Sprintf("fractune-%d", seed))
}

// convert godoc
// @Summary Convert a composition file
// @Description Upload a MIDI or JSON composition and receive it in another format
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "MIDI or JSON file to convert"
// @Param to query string false "Target format: midi or json (default: midi)"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/convert [post]
func (s *Server) convert(c *gin.Context) {
	to := converter.ParseFormat(c.DefaultQuery("to", "midi"))
	enc, ok := s.conv.Encoder(to)
	if !ok {
		badRequest(c, "Unsupported target format")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(c, "Failed to read file")
		return
	}

	comp, err := s.conv.Decode(data)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	result, err := enc.Encode(comp)
	if err != nil {
		respondError(c, err)
		return
	}

	outputName := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	if outputName == "" {
		outputName = "converted"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s%s", outputName, enc.Extension()))
	c.Data(http.StatusOK, enc.ContentType(), result)
}

// createComposition godoc
// @Summary Generate and save a composition
// @Tags compositions
// @Accept json
// @Produce json
// @Param request body CreateCompositionRequest true "Title, seed and parameters"
// @Success 201 {object} store.Record
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/compositions [post]
func (s *Server) createComposition(c *gin.Context) {
	var req CreateCompositionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	comp, seed, err := s.compose(c, req.Seed, req.Params)
	if err != nil {
		respondError(c, err)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("%s %d", comp.Parameters.Scale, seed)
	}
	rec := &store.Record{
		OwnerID:     OwnerID(c),
		Title:       title,
		Seed:        seed,
		Composition: *comp,
	}
	if err := s.repo.Save(c.Request.Context(), rec); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// listCompositions godoc
// @Summary List saved compositions
// @Tags compositions
// @Produce json
// @Success 200 {object} map[string][]store.Summary
// @Router /api/v1/compositions [get]
func (s *Server) listCompositions(c *gin.Context) {
	records, err := s.repo.List(c.Request.Context(), OwnerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"compositions": store.Summaries(records)})
}

// getComposition godoc
// @Summary Get a saved composition
// @Tags compositions
// @Produce json
// @Param id path string true "Composition ID"
// @Success 200 {object} store.Record
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/compositions/{id} [get]
func (s *Server) getComposition(c *gin.Context) {
	rec, err := s.repo.Get(c.Request.Context(), OwnerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// getCompositionMIDI godoc
// @Summary Download a saved composition as MIDI
// @Tags compositions
// @Produce audio/midi
// @Param id path string true "Composition ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/compositions/{id}/midi [get]
func (s *Server) getCompositionMIDI(c *gin.Context) {
	rec, err := s.repo.Get(c.Request.Context(), OwnerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	s.sendMIDI(c, &rec.Composition, "fractune-"+rec.ID)
}

// deleteComposition godoc
// @Summary Delete a saved composition
// @Tags compositions
// @Param id path string true "Composition ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/compositions/{id} [delete]
func (s *Server) deleteComposition(c *gin.Context) {
	if err := s.repo.Delete(c.Request.Context(), OwnerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// addFavorite godoc
// @Summary Mark a composition as favorite
// @Tags favorites
// @Produce json
// @Param id path string true "Composition ID"
// @Success 200 {object} store.Record
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/compositions/{id}/favorite [put]
func (s *Server) addFavorite(c *gin.Context) {
	s.setFavorite(c, true)
}

// removeFavorite godoc
// @Summary Remove a composition from favorites
// @Tags favorites
// @Produce json
// @Param id path string true "Composition ID"
// @Success 200 {object} store.Record
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/compositions/{id}/favorite [delete]
func (s *Server) removeFavorite(c *gin.Context) {
	s.setFavorite(c, false)
}

func (s *Server) setFavorite(c *gin.Context, favorite bool) {
	rec, err := s.repo.SetFavorite(c.Request.Context(), OwnerID(c), c.Param("id"), favorite)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// listFavorites godoc
// @Summary List favorite compositions
// @Tags favorites
// @Produce json
// @Success 200 {object} map[string][]store.Summary
// @Router /api/v1/favorites [get]
func (s *Server) listFavorites(c *gin.Context) {
	records, err := s.repo.Favorites(c.Request.Context(), OwnerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": store.Summaries(records)})
}

// history godoc
// @Summary Activity history
// @Description Returns the newest library changes first
// @Tags history
// @Produce json
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {object} map[string][]store.HistoryEntry
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/history [get]
func (s *Server) history(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultHistoryLimit)))
	if err != nil || limit < 1 {
		badRequest(c, "limit must be a positive integer")
		return
	}
	entries, err := s.repo.History(c.Request.Context(), OwnerID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
