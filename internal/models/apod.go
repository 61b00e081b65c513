package models

import (
	"time"

	"github.com/google/uuid"
)

// Media types reported by the APOD feed
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// ApodEntry is one stored Astronomy Picture of the Day, unique per date
type ApodEntry struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Date        time.Time  `json:"date" db:"apod_date"`
	Title       string     `json:"title" db:"title"`
	Explanation string     `json:"explanation" db:"explanation"`
	URL         *string    `json:"url" db:"url"`
	HDURL       *string    `json:"hd_url" db:"hd_url"`
	MediaType   string     `json:"media_type" db:"media_type"`
	Copyright   *string    `json:"copyright" db:"copyright"`
	ViewCount   int        `json:"view_count" db:"view_count"`
	Rating      *float64   `json:"rating" db:"rating"`
	IsFavorited bool       `json:"is_favorited" db:"is_favorited"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at" db:"updated_at"`
}

// ApodTrend aggregates stored entries for one calendar month
type ApodTrend struct {
	Period           time.Time `json:"period"`
	TotalImages      int       `json:"total_images"`
	TotalVideos      int       `json:"total_videos"`
	AverageRating    float64   `json:"average_rating"`
	TotalViews       int       `json:"total_views"`
	MostPopularTitle string    `json:"most_popular_title"`
}

// CalendarItem is one day scraped from the APOD monthly calendar page
type CalendarItem struct {
	Date     time.Time `json:"date"`
	Title    string    `json:"title"`
	ImageURL string    `json:"image_url"`
	PageURL  string    `json:"page_url"`
}
