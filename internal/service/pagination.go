package service

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// normalizePage clamps limit into (0, max] and skip to non-negative.
func normalizePage(limit, skip, def, max int) (int, int) {
	if def <= 0 {
		def = defaultPageSize
	}
	if max <= 0 {
		max = maxPageSize
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}
