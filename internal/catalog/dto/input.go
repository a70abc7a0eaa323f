package dto

type ProductFilters struct {
	SearchQuery string
	IsActive    *bool
	Page        int
	PageSize    int
}
