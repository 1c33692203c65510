package utils

import "fmt"

// PageMeta mirrors the paginator metadata shape the frontend already
// consumes: totals, page window, and ready-to-follow link URLs. Next and
// previous are null on the boundary pages.
type PageMeta struct {
	Total           int64   `json:"total"`
	PerPage         int     `json:"perPage"`
	CurrentPage     int     `json:"currentPage"`
	LastPage        int     `json:"lastPage"`
	FirstPage       int     `json:"firstPage"`
	FirstPageURL    string  `json:"firstPageUrl"`
	LastPageURL     string  `json:"lastPageUrl"`
	NextPageURL     *string `json:"nextPageUrl"`
	PreviousPageURL *string `json:"previousPageUrl"`
}

// Paginated is a page of results plus its metadata.
type Paginated struct {
	Meta PageMeta    `json:"meta"`
	Data interface{} `json:"data"`
}

// NewPaginated assembles a paginated response. baseURL is the collection URL
// the links point at; sizeParam is the size value to echo in link query
// strings (the caller passes the original query parameter so links reproduce
// the request, empty means "use size").
func NewPaginated(data interface{}, total int64, page, size int, baseURL, sizeParam string) Paginated {
	if sizeParam == "" {
		sizeParam = fmt.Sprintf("%d", size)
	}
	last := LastPage(total, size)

	pageURL := func(p int) string {
		return fmt.Sprintf("%s?size=%s&page=%d", baseURL, sizeParam, p)
	}

	meta := PageMeta{
		Total:        total,
		PerPage:      size,
		CurrentPage:  page,
		LastPage:     last,
		FirstPage:    1,
		FirstPageURL: pageURL(1),
		LastPageURL:  pageURL(last),
	}
	if page < last {
		next := pageURL(page + 1)
		meta.NextPageURL = &next
	}
	if page > 1 {
		prev := pageURL(page - 1)
		meta.PreviousPageURL = &prev
	}
	return Paginated{Meta: meta, Data: data}
}

// LastPage returns the number of the final page for the given total and page
// size, never less than 1.
func LastPage(total int64, size int) int {
	if size <= 0 {
		return 1
	}
	last := int((total + int64(size) - 1) / int64(size))
	if last < 1 {
		last = 1
	}
	return last
}
