package models

// Listing is one job card as scraped from the board, before persistence.
type Listing struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	PostingDate string   `json:"posting_date"`
	JobType     JobType  `json:"job_type"`
	Tags        []string `json:"tags"`
}
