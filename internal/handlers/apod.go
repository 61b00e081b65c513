package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"ASTROTRACKER_BACK-END/internal/dto"
	"ASTROTRACKER_BACK-END/internal/errs"
	"ASTROTRACKER_BACK-END/internal/services"
	"ASTROTRACKER_BACK-END/internal/utils"
)

const defaultPageSize = 10

// ApodHandler serves the Astronomy Picture of the Day endpoints
type ApodHandler struct {
	apods  *services.ApodService
	logger *slog.Logger
}

// NewApodHandler creates a new ApodHandler instance
func NewApodHandler(apods *services.ApodService, logger *slog.Logger) *ApodHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApodHandler{apods: apods, logger: logger}
}

// optionalDate parses the named query parameter; absent means the zero time
func optionalDate(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return utils.ParseDate(v)
}

func requiredDate(r *http.Request, name string) (time.Time, error) {
	if r.URL.Query().Get(name) == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", errs.ErrInvalidInput, name)
	}
	return optionalDate(r, name)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errs.ErrInvalidInput, name)
	}
	return n, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid APOD id", errs.ErrInvalidInput)
	}
	return id, nil
}

// GetApod returns the picture of the given day
// @Summary Get APOD by date
// @Description Returns the Astronomy Picture of the Day, fetching it from NASA when not stored yet. Counts a view.
// @Tags nasa
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.ApodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid date"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 503 {object} dto.ErrorResponse "NASA service unavailable"
// @Router /api/nasa/apod [get]
func (h *ApodHandler) GetApod(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	date, err := optionalDate(r, "date")
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	entry, err := h.apods.ViewByDate(r.Context(), date)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewApodResponse(entry))
}

// GetRandomApod returns the picture of a random archive day
// @Summary Get random APOD
// @Tags nasa
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ApodResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 503 {object} dto.ErrorResponse "NASA service unavailable"
// @Router /api/nasa/apod/random [get]
func (h *ApodHandler) GetRandomApod(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	entry, err := h.apods.Random(r.Context())
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewApodResponse(entry))
}

// GetApodRange returns stored pictures between two dates
// @Summary Get APOD range
// @Description Stored entries between startDate and endDate (at most 30 days apart), newest first
// @Tags nasa
// @Produce json
// @Security BearerAuth
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD)"
// @Success 200 {array} dto.ApodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid range"
// @Router /api/nasa/apod/range [get]
func (h *ApodHandler) GetApodRange(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	start, err := requiredDate(r, "startDate")
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	end, err := requiredDate(r, "endDate")
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	entries, err := h.apods.Range(r.Context(), start, end)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewApodResponses(entries))
}

// GetStoredApods pages through stored pictures
// @Summary Get stored APODs
// @Tags nasa
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param pageSize query int false "Page size (default 10, max 50)"
// @Success 200 {array} dto.ApodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid paging"
// @Router /api/nasa/apod/stored [get]
func (h *ApodHandler) GetStoredApods(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	page, err := intParam(r, "page", 1)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	pageSize, err := intParam(r, "pageSize", defaultPageSize)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	entries, err := h.apods.Stored(r.Context(), page, pageSize)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewApodResponses(entries))
}

// GetTrends aggregates stored pictures per month
// @Summary Get APOD trends
// @Tags nasa
// @Produce json
// @Security BearerAuth
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD)"
// @Success 200 {array} dto.ApodTrendResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid range"
// @Router /api/nasa/apod/trends [get]
func (h *ApodHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	start, err := requiredDate(r, "startDate")
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	end, err := requiredDate(r, "endDate")
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	trends, err := h.apods.Trends(r.Context(), start, end)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewApodTrendResponses(trends))
}

// UpdateRating rates a stored picture
// @Summary Rate an APOD
// @Tags nasa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "APOD id"
// @Param request body dto.RatingRequest true "Rating from 1 to 5"
// @Success 200 {object} dto.ApodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid rating"
// @Failure 404 {object} dto.ErrorResponse "APOD not found"
// @Router /api/nasa/apod/{id}/rating [put]
func (h *ApodHandler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPut) {
		return
	}

	id, err := pathID(r)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	var req dto.RatingRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	entry, err := h.apods.Rate(r.Context(), id, req.Rating)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewApodResponse(entry))
}

// ToggleFavorite flips the favorite flag of a stored picture
// @Summary Toggle APOD favorite
// @Tags nasa
// @Produce json
// @Security BearerAuth
// @Param id path string true "APOD id"
// @Success 200 {object} dto.ApodResponse
// @Failure 404 {object} dto.ErrorResponse "APOD not found"
// @Router /api/nasa/apod/{id}/favorite [post]
func (h *ApodHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	id, err := pathID(r)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	entry, err := h.apods.ToggleFavorite(r.Context(), id)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewApodResponse(entry))
}

// SyncApod refetches one day from NASA
// @Summary Sync APOD from NASA
// @Description Fetches the day from NASA and updates the stored entry when its title changed
// @Tags nasa
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.ApodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid date"
// @Failure 503 {object} dto.ErrorResponse "NASA service unavailable"
// @Router /api/nasa/apod/sync [post]
func (h *ApodHandler) SyncApod(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	date, err := optionalDate(r, "date")
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	entry, err := h.apods.Sync(r.Context(), date)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewApodResponse(entry))
}

// GetCalendar lists the days of one archive month
// @Summary Get APOD calendar month
// @Description Scraped from the apod.nasa.gov monthly calendar and cached for 12 hours
// @Tags nasa
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year, defaults to the current year"
// @Param month query int false "Month (1-12), defaults to the current month"
// @Success 200 {array} dto.ApodCalendarItemResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid month"
// @Failure 503 {object} dto.ErrorResponse "APOD archive unavailable"
// @Router /api/nasa/apod/calendar [get]
func (h *ApodHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	now := time.Now().UTC()
	year, err := intParam(r, "year", now.Year())
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	month, err := intParam(r, "month", int(now.Month()))
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}

	items, err := h.apods.Calendar(r.Context(), year, month)
	if err != nil {
		utils.WriteServiceError(w, r, h.logger, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewCalendarResponses(items))
}
