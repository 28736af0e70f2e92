package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds pagination inputs from controllers or services. Page is
// 1-based; RowOffset carries a raw limit/offset query through unchanged and
// takes precedence over Page when positive.
type Params struct {
	Page      int
	Limit     int
	RowOffset int
}

// Page describes the pagination block returned alongside list payloads.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage coerces page numbers to start at one.
func NormalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// Offset converts the inputs into a row offset. A raw offset wins so
// non-aligned windows are served exactly as requested.
func (p Params) Offset() int {
	if p.RowOffset > 0 {
		return p.RowOffset
	}
	return (NormalizePage(p.Page) - 1) * NormalizeLimit(p.Limit)
}

// BuildPage assembles the response pagination block for a total row count.
// The reported page is derived from the effective offset.
func BuildPage(params Params, total int64) Page {
	limit := NormalizeLimit(params.Limit)
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return Page{
		Page:       params.Offset()/limit + 1,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
	}
}
