package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort fields accepted by Query.
const (
	SortByName   = "name"
	SortByPrice  = "price"
	SortByRating = "rating"
)

// Sort orders accepted by Query.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// DefaultPageSize is the number of products per page when the caller does
// not specify a limit.
const DefaultPageSize = 12

// Filter describes a product listing request: optional category and
// keyword filters, sort key and direction, and 1-indexed pagination.
type Filter struct {
	CategoryID string
	Search     string
	SortField  string
	SortOrder  string
	Page       int
	PerPage    int
}

// Pagination describes the position of a page within the filtered result set.
type Pagination struct {
	CurrentPage  int
	TotalPages   int
	TotalItems   int
	ItemsPerPage int
}

// Page is one page of a filtered, sorted product listing.
type Page struct {
	Products   []Product
	Pagination Pagination
}

// Query filters, sorts, and paginates the given products. Keyword search
// matches name, description, and brand case-insensitively. Name sorting
// uses Japanese-locale collation to match how the storefront displays
// product names. Unknown sort fields fall back to name, unknown orders to
// ascending. The input slice is not modified.
func Query(products []Product, f Filter) Page {
	filtered := make([]Product, 0, len(products))
	keyword := strings.ToLower(strings.TrimSpace(f.Search))
	for _, p := range products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if keyword != "" && !matchesKeyword(p, keyword) {
			continue
		}
		filtered = append(filtered, p)
	}

	sortProducts(filtered, f.SortField, f.SortOrder)

	perPage := f.PerPage
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	total := len(filtered)
	totalPages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return Page{
		Products: filtered[start:end],
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: perPage,
		},
	}
}

func matchesKeyword(p Product, keyword string) bool {
	return strings.Contains(strings.ToLower(p.Name), keyword) ||
		strings.Contains(strings.ToLower(p.Description), keyword) ||
		strings.Contains(strings.ToLower(p.Brand), keyword)
}

func sortProducts(products []Product, field, order string) {
	var less func(a, b Product) bool
	switch field {
	case SortByPrice:
		less = func(a, b Product) bool { return a.Price.LessThan(b.Price) }
	case SortByRating:
		less = func(a, b Product) bool { return a.Rating < b.Rating }
	default:
		c := collate.New(language.Japanese)
		less = func(a, b Product) bool { return c.CompareString(a.Name, b.Name) < 0 }
	}

	desc := order == OrderDesc
	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}
