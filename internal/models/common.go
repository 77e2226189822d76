package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPagination normalises page/limit and derives the page count. The
// limit bounds mirror what the repositories apply to their queries.
func NewPagination(page, limit, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return &Pagination{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

// AcademicPeriods is the closed set of supported terms.
var AcademicPeriods = []string{"2025-I", "2025-II", "2026-I", "2026-II"}

// IsAcademicPeriod reports whether p belongs to the supported term set.
func IsAcademicPeriod(p string) bool {
	for _, period := range AcademicPeriods {
		if period == p {
			return true
		}
	}
	return false
}

// GradeLevels are the school grade levels shared by students and courses.
var GradeLevels = []string{"1ro", "2do", "3ro", "4to", "5to", "6to"}

// Sections are the per-grade class sections.
var Sections = []string{"A", "B", "C", "D"}
