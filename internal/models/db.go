package models

import (
	"strings"
	"time"
)

type JobType string

const (
	JobTypeFullTime   JobType = "Full-time"
	JobTypePartTime   JobType = "Part-time"
	JobTypeContract   JobType = "Contract"
	JobTypeInternship JobType = "Internship"
)

// TagSeparator delimits tags in the jobs.tags column.
const TagSeparator = ","

// Job is a persisted listing. ID and timestamps are assigned by the store.
type Job struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	PostingDate string    `json:"posting_date"`
	JobType     JobType   `json:"job_type"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JobPatch carries a partial update; nil fields are left untouched.
type JobPatch struct {
	Title       *string
	Company     *string
	Location    *string
	PostingDate *string
	JobType     *JobType
	Tags        *[]string
}

// Sort orders accepted by JobFilter.
const (
	SortPostingDateDesc = "posting_date_desc"
	SortPostingDateAsc  = "posting_date_asc"
)

type JobFilter struct {
	JobType  string
	Location string
	Tag      string
	Search   string // title or company
	Sort     string
}

func JoinTags(tags []string) string {
	return strings.Join(tags, TagSeparator)
}

// SplitTags is the inverse of JoinTags. Empty input yields an empty, non-nil slice
// so the API always renders a JSON list.
func SplitTags(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, TagSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
