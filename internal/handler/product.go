package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/knagata/storefront/internal/domain/catalog"
)

type productView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand"`
	CategoryID  string            `json:"categoryId"`
	Price       float64           `json:"price"`
	Stock       int               `json:"stock"`
	Rating      float64           `json:"rating"`
	Description string            `json:"description"`
	ImageURL    string            `json:"imageUrl"`
	Specs       map[string]string `json:"specs,omitempty"`
}

type paginationView struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type productPageView struct {
	Products   []productView  `json:"products"`
	Pagination paginationView `json:"pagination"`
}

type categoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) viewProduct(p catalog.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		CategoryID:  p.CategoryID,
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
		Rating:      p.Rating,
		Description: p.Description,
		ImageURL:    h.imageURL(p.ImageURL),
		Specs:       p.Specs,
	}
}

// imageURL prepends the configured base URL to relative image paths.
// Absolute URLs in fixture data pass through untouched.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.cfg.ImageBaseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(h.cfg.ImageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	page := catalog.Query(products, filterFromQuery(r))

	views := make([]productView, len(page.Products))
	for i, p := range page.Products {
		views[i] = h.viewProduct(p)
	}
	respondData(w, http.StatusOK, productPageView{
		Products: views,
		Pagination: paginationView{
			CurrentPage:  page.Pagination.CurrentPage,
			TotalPages:   page.Pagination.TotalPages,
			TotalItems:   page.Pagination.TotalItems,
			ItemsPerPage: page.Pagination.ItemsPerPage,
		},
	})
}

// filterFromQuery parses listing parameters, falling back to defaults on
// anything malformed rather than rejecting the request.
func filterFromQuery(r *http.Request) catalog.Filter {
	q := r.URL.Query()
	f := catalog.Filter{
		CategoryID: q.Get("category"),
		Search:     q.Get("search"),
	}

	switch q.Get("sort") {
	case catalog.SortByPrice:
		f.SortField = catalog.SortByPrice
	case catalog.SortByRating:
		f.SortField = catalog.SortByRating
	default:
		f.SortField = catalog.SortByName
	}
	if q.Get("order") == catalog.OrderDesc {
		f.SortOrder = catalog.OrderDesc
	} else {
		f.SortOrder = catalog.OrderAsc
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		f.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		f.PerPage = limit
	}
	return f
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, h.viewProduct(*p))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	views := make([]categoryView, len(categories))
	for i, c := range categories {
		views[i] = categoryView{ID: c.ID, Name: c.Name}
	}
	respondData(w, http.StatusOK, views)
}
