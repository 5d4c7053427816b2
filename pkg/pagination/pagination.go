package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page/limit pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta describes a page of results on the wire.
type Meta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// Normalize enforces the configured default and maximum limits and a
// 1-based page number.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	normalized := Normalize(p)
	return (normalized.Page - 1) * normalized.Limit
}

// BuildMeta computes the page metadata for a total row count.
func BuildMeta(p Params, total int) Meta {
	normalized := Normalize(p)
	totalPages := 0
	if total > 0 {
		totalPages = (total + normalized.Limit - 1) / normalized.Limit
	}
	return Meta{
		Total:      total,
		Page:       normalized.Page,
		TotalPages: totalPages,
		HasMore:    normalized.Page < totalPages,
	}
}
