package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	// from+size must stay representable for any page a client sends.
	if page-1 > (math.MaxInt-size)/size {
		return math.MaxInt - size, size
	}
	from = (page - 1) * size
	return from, size
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func Meta(page, size int, total int64) PageMeta {
	from, limit := Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return PageMeta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		HasPrev:    page > 1,
		HasNext:    int64(from+limit) < total,
	}
}

// Window clamps [from, from+limit) to a slice of length n.
func Window(n, from, limit int) (lo, hi int) {
	if from < 0 || from > n {
		from = n
	}
	if limit < 0 || limit > n-from {
		return from, n
	}
	return from, from + limit
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
