package domain

import "time"

// Filter scopes list, count and statistics queries. Zero values mean
// "no constraint". Visibility rules (who may filter on whom) are the
// caller's concern; the store trusts the filter it is given.
type Filter struct {
	SubmitterID string
	Variety     string
	Condition   Condition
	State       State
	From        time.Time
	To          time.Time
}

// ClassificationPage is one page of list results plus the unpaged total.
type ClassificationPage struct {
	Items      []Classification `json:"items"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}
