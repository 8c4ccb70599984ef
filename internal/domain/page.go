package domain

// Page limits shared by every list endpoint.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	MaxTaskPageLimit = 200
)

// Page is the pagination part of a list filter. Zero values mean defaults.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page to >= 1 and the limit to [1, maxLimit].
func (p Page) Normalize(maxLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	Limit       int `json:"limit"`
}

// ListResult is the uniform list response shape.
type ListResult[T any] struct {
	Items      []T        `json:"items"`
	Total      int        `json:"total"`
	Pagination Pagination `json:"pagination"`
}

// NewListResult builds a ListResult for a normalized page.
func NewListResult[T any](items []T, total int, page Page) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if page.Limit > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}
	return ListResult[T]{
		Items: items,
		Total: total,
		Pagination: Pagination{
			CurrentPage: page.Page,
			TotalPages:  totalPages,
			Limit:       page.Limit,
		},
	}
}
