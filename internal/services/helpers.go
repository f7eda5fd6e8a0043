package services

import "github.com/connecthq/connect/pkg/response"

// Page describes a normalised pagination request. Pages are 1-based.
type Page struct {
	Number int
	Size   int
}

// NormalisePage clamps page/size to sane values, applying the endpoint's
// default page size when none was requested.
func NormalisePage(number, size, defaultSize int) Page {
	if number <= 0 {
		number = 1
	}
	if size <= 0 {
		size = defaultSize
	}
	return Page{Number: number, Size: size}
}

// Offset converts the page into a SQL offset.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Meta builds the response metadata for a total row count.
func (p Page) Meta(total int64) *response.Meta {
	totalPages := int((total + int64(p.Size) - 1) / int64(p.Size))
	return &response.Meta{
		Page:       p.Number,
		PerPage:    p.Size,
		Total:      total,
		TotalPages: totalPages,
	}
}
