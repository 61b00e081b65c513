package dto

// ApodResponse is one stored Astronomy Picture of the Day
type ApodResponse struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	URL         *string  `json:"url"`
	HDURL       *string  `json:"hdUrl"`
	MediaType   string   `json:"mediaType"`
	Copyright   *string  `json:"copyright"`
	ViewCount   int      `json:"viewCount"`
	Rating      *float64 `json:"rating"`
	IsFavorited bool     `json:"isFavorited"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   *string  `json:"updatedAt"`
}

// ApodTrendResponse aggregates one calendar month
type ApodTrendResponse struct {
	Period           string  `json:"period"`
	TotalImages      int     `json:"totalImages"`
	TotalVideos      int     `json:"totalVideos"`
	AverageRating    float64 `json:"averageRating"`
	TotalViews       int     `json:"totalViews"`
	MostPopularTitle string  `json:"mostPopularTitle"`
}

// ApodCalendarItemResponse is one day of the monthly calendar
type ApodCalendarItemResponse struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	PageURL  string `json:"pageUrl"`
}

// RatingRequest rates an entry from 1 to 5
type RatingRequest struct {
	Rating float64 `json:"rating" validate:"gte=1,lte=5"`
}
