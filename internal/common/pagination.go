package common

import (
	"net/http"
	"strconv"
)

// Pagination is the metadata block attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination fills TotalPages from total and perPage.
func NewPagination(page, perPage int, total int64) Pagination {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Pagination{Page: page, PerPage: perPage, TotalItems: int(total), TotalPages: pages}
}

// ParsePagination reads ?page and ?limit (or ?per_page). Invalid values fall
// back to page 1 and defaultPerPage; perPage is capped at maxPerPage when
// maxPerPage is positive.
func ParsePagination(r *http.Request, defaultPerPage, maxPerPage int) (page, perPage int) {
	q := r.URL.Query()
	page = positiveInt(q.Get("page"), 1)
	limit := q.Get("limit")
	if limit == "" {
		limit = q.Get("per_page")
	}
	perPage = positiveInt(limit, defaultPerPage)
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func positiveInt(raw string, fallback int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}
