// internal/api/conversions/handlers.go
package conversions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/api/apiutil"
	"github.com/codr1/refschedule/internal/conversion"
	"github.com/codr1/refschedule/internal/db"
	"github.com/codr1/refschedule/internal/export"
	"github.com/codr1/refschedule/internal/ratelimit"
	"github.com/codr1/refschedule/internal/schedule"
	"github.com/codr1/refschedule/internal/storage"
	"github.com/codr1/refschedule/internal/translations"
	"github.com/codr1/refschedule/internal/workbook"
)

const (
	queryTimeout     = 5 * time.Second
	defaultListLimit = 20
	maxListLimit     = 100
	runIDParam       = "id"

	defaultMaxUploadBytes int64 = 10 << 20
)

type Handlers struct {
	Runner  *conversion.Runner
	Limiter *ratelimit.Limiter

	// MaxUploadBytes caps the whole multipart body.
	MaxUploadBytes int64
	TrustProxy     bool
}

// Register mounts the conversion routes on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/conversions", h.HandleCreate)
	mux.HandleFunc("GET /api/v1/conversions", h.HandleList)
	mux.HandleFunc("GET /api/v1/conversions/{id}", h.HandleGet)
	mux.HandleFunc("GET /api/v1/conversions/{id}/output", h.HandleOutput)
}

type runResponse struct {
	ID             string     `json:"id"`
	Town           string     `json:"town"`
	Source         string     `json:"source"`
	Status         string     `json:"status"`
	RefereeGames   int64      `json:"refereeGames"`
	TeamGames      int64      `json:"teamGames"`
	TownSlots      int64      `json:"townSlots"`
	Assignments    int64      `json:"assignments"`
	UnmatchedSlots int64      `json:"unmatchedSlots"`
	UnmatchedGames int64      `json:"unmatchedGames"`
	Error          string     `json:"error,omitempty"`
	OutputURL      string     `json:"outputUrl,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

type listResponse struct {
	Runs []runResponse `json:"runs"`
}

func newRunResponse(run db.ConversionRun) runResponse {
	resp := runResponse{
		ID:             run.ID,
		Town:           run.Town,
		Source:         run.Source,
		Status:         run.Status,
		RefereeGames:   run.RefereeGames,
		TeamGames:      run.TeamGames,
		TownSlots:      run.TownSlots,
		Assignments:    run.Assignments,
		UnmatchedSlots: run.UnmatchedSlots,
		UnmatchedGames: run.UnmatchedGames,
		Error:          run.ErrorMessage.String,
		CreatedAt:      run.CreatedAt.UTC(),
	}
	if run.OutputKey.Valid && run.OutputKey.String != "" {
		resp.OutputURL = "/api/v1/conversions/" + run.ID + "/output"
	}
	if run.CompletedAt.Valid {
		completed := run.CompletedAt.Time.UTC()
		resp.CompletedAt = &completed
	}
	return resp
}

// POST /api/v1/conversions
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusRequestEntityTooLarge, Message: "Upload too large", Err: err})
			return
		}
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid multipart form", Err: err})
		return
	}
	defer r.MultipartForm.RemoveAll()

	town := strings.ToLower(strings.TrimSpace(r.FormValue("town")))
	if town == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "town", Reason: "is required"})
		return
	}

	clientIP := ratelimit.GetClientIP(r, h.TrustProxy)
	if h.Limiter != nil {
		result := h.Limiter.CheckUpload(town, clientIP)
		if !result.Allowed {
			ratelimit.LogRateLimitExceeded(r.Context(), town, clientIP, result)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusTooManyRequests, Message: "Too many conversions, try again later"})
			return
		}
	}

	master, err := openUpload(r, "master")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	defer master.Close()

	townBook, err := openUpload(r, "town_file")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	defer townBook.Close()

	if h.Limiter != nil {
		h.Limiter.RecordUpload(town, clientIP)
	}

	run, err := h.Runner.Run(r.Context(), conversion.Input{
		Town:     town,
		Source:   db.RunSourceUpload,
		Master:   schedule.WorkbookMaster{Book: master},
		TownBook: townBook,
	})
	if err != nil {
		apiutil.WriteError(w, r, runError(err))
		return
	}

	logger.Info().Str("run_id", run.ID).Str("town", town).Msg("Conversion created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, newRunResponse(run)); err != nil {
		logger.Error().Err(err).Msg("Failed to write conversion response")
	}
}

// openUpload opens the xlsx uploaded under field.
func openUpload(r *http.Request, field string) (*workbook.Workbook, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, apiutil.FieldError{Field: field, Reason: "is required"}
		}
		return nil, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid " + field + " upload", Err: err}
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	book, err := workbook.OpenReader(file)
	if err != nil {
		return nil, apiutil.FieldError{Field: field, Reason: "is not a readable xlsx workbook"}
	}
	return book, nil
}

// runError maps conversion failures to HTTP errors.
func runError(err error) error {
	switch {
	case errors.Is(err, conversion.ErrTownRequired):
		return apiutil.FieldError{Field: "town", Reason: "is required"}
	case errors.Is(err, translations.ErrNoFields),
		errors.Is(err, translations.ErrNoAgeGroups),
		errors.Is(err, translations.ErrNotFound),
		errors.Is(err, schedule.ErrMasterSheetNotFound),
		errors.Is(err, schedule.ErrDuplicateKey):
		return apiutil.HandlerError{Status: http.StatusUnprocessableEntity, Message: err.Error(), Err: err}
	default:
		return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Conversion failed", Err: err}
	}
}

// GET /api/v1/conversions
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	limit, err := apiutil.IntQuery(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	town := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("town")))

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	runs, err := h.Runner.DB.Queries.ListConversionRuns(ctx, db.ListConversionRunsParams{
		Town:  town,
		Limit: int64(limit),
	})
	if err != nil {
		apiutil.WriteError(w, r, fmt.Errorf("list conversion runs: %w", err))
		return
	}

	resp := listResponse{Runs: make([]runResponse, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, newRunResponse(run))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write conversion list")
	}
}

// GET /api/v1/conversions/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, newRunResponse(run)); err != nil {
		logger.Error().Err(err).Msg("Failed to write conversion run")
	}
}

// GET /api/v1/conversions/{id}/output
func (h *Handlers) HandleOutput(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	data, err := h.Runner.Output(r.Context(), run)
	if err != nil {
		if errors.Is(err, conversion.ErrNoOutput) || errors.Is(err, storage.ErrNotFound) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Conversion output not found", Err: err})
			return
		}
		apiutil.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType(export.FormatCSV))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.csv"`, run.Town, run.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to write conversion output")
	}
}

func (h *Handlers) loadRun(w http.ResponseWriter, r *http.Request) (db.ConversionRun, bool) {
	id := strings.TrimSpace(r.PathValue(runIDParam))
	if id == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: runIDParam, Reason: "is required"})
		return db.ConversionRun{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	run, err := h.Runner.DB.Queries.GetConversionRun(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Conversion not found", Err: err})
			return db.ConversionRun{}, false
		}
		apiutil.WriteError(w, r, fmt.Errorf("get conversion run: %w", err))
		return db.ConversionRun{}, false
	}
	return run, true
}
