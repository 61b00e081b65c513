package dto

import (
	"time"

	"ASTROTRACKER_BACK-END/internal/models"
)

const (
	dateLayout   = "2006-01-02"
	periodLayout = "2006-01"
)

// NewUserResponse converts a user model into its API representation
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:             u.ID.String(),
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewApodResponse converts a stored entry into its API representation
func NewApodResponse(a *models.ApodEntry) ApodResponse {
	resp := ApodResponse{
		ID:          a.ID.String(),
		Date:        a.Date.Format(dateLayout),
		Title:       a.Title,
		Explanation: a.Explanation,
		URL:         a.URL,
		HDURL:       a.HDURL,
		MediaType:   a.MediaType,
		Copyright:   a.Copyright,
		ViewCount:   a.ViewCount,
		Rating:      a.Rating,
		IsFavorited: a.IsFavorited,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.UpdatedAt != nil {
		updated := a.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	return resp
}

// NewApodResponses converts a slice of entries, never returning nil
func NewApodResponses(entries []models.ApodEntry) []ApodResponse {
	out := make([]ApodResponse, 0, len(entries))
	for i := range entries {
		out = append(out, NewApodResponse(&entries[i]))
	}
	return out
}

// NewApodTrendResponses converts monthly aggregates; periods render as YYYY-MM
func NewApodTrendResponses(trends []models.ApodTrend) []ApodTrendResponse {
	out := make([]ApodTrendResponse, 0, len(trends))
	for _, t := range trends {
		out = append(out, ApodTrendResponse{
			Period:           t.Period.Format(periodLayout),
			TotalImages:      t.TotalImages,
			TotalVideos:      t.TotalVideos,
			AverageRating:    t.AverageRating,
			TotalViews:       t.TotalViews,
			MostPopularTitle: t.MostPopularTitle,
		})
	}
	return out
}

// NewCalendarResponses converts scraped calendar days
func NewCalendarResponses(items []models.CalendarItem) []ApodCalendarItemResponse {
	out := make([]ApodCalendarItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ApodCalendarItemResponse{
			Date:     it.Date.Format(dateLayout),
			Title:    it.Title,
			ImageURL: it.ImageURL,
			PageURL:  it.PageURL,
		})
	}
	return out
}
