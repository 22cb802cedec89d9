// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"shopcore/internal/domain"
)

// ListResponse wraps list results with paging metadata.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse builds the list envelope from a domain list result.
func NewListResponse[T any](res domain.ListResult[T]) ListResponse {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// IDResponse returns just the identifier of a created resource.
type IDResponse struct {
	ID string `json:"id"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
