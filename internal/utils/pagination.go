package utils

import (
	"github.com/gofiber/fiber/v2"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Pagination is a resolved page window for list queries.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads ?page and ?limit. Non-numeric or non-positive
// values fall back to page 1 and the default limit; limit is capped.
func ParsePagination(c *fiber.Ctx) Pagination {
	return NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", defaultLimit))
}

// NewPagination clamps page and limit into a usable window.
func NewPagination(page, limit int) Pagination {
	page = max(page, 1)
	if limit < 1 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	return Pagination{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// Meta renders the pagination block returned with list responses.
func (p Pagination) Meta(total int64) fiber.Map {
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	return fiber.Map{
		"total":      total,
		"page":       p.Page,
		"totalPages": pages,
		"limit":      p.Limit,
	}
}
