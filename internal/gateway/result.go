package gateway

const (
	DefaultPage  = 1
	DefaultLimit = 50
)

// Result is the success branch of every operation. Local marks data served
// by the fallback store, which the caller may surface as "offline".
type Result[T any] struct {
	Data  T
	Local bool
	Page  *Pagination
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ListQuery struct {
	Page     int
	Limit    int
	Category string
	Search   string
	UserID   string
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	return q
}

func newPagination(page, limit, total int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// paginate slices items for q and computes metadata against the full length.
func paginate[T any](items []T, q ListQuery) ([]T, *Pagination) {
	q = q.normalized()
	total := len(items)
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	page := make([]T, end-start)
	copy(page, items[start:end])
	return page, newPagination(q.Page, q.Limit, total)
}
