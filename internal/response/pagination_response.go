package response

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}

const MaxPageSize = 100

// NewPagination clamps page and pageSize and describes the window
// [From, To) over total items. From and To are zero based offsets.
func NewPagination(page, pageSize, total int) Pagination {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	pages := (total + pageSize - 1) / pageSize
	from := (page - 1) * pageSize
	if from > total {
		from = total
	}
	to := from + pageSize
	if to > total {
		to = total
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int64(pages),
		TotalItems: int64(total),
		HasMore:    to < total,
		From:       from,
		To:         to,
	}
}
