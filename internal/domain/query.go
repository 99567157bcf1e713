package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Direction is the sort order requested from the backend
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Toggle flips the sort direction
func (d Direction) Toggle() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// ListQuery holds the paging and sorting parameters shared by all list endpoints
type ListQuery struct {
	Page      int
	Size      int
	Sort      string
	Direction Direction
}

// WithDefaults fills empty fields
func (q ListQuery) WithDefaults(size int, sort string) ListQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = size
	}
	if q.Sort == "" {
		q.Sort = sort
	}
	if q.Direction == "" {
		q.Direction = Asc
	}
	return q
}

// Values encodes the query as URL parameters
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Direction != "" {
		v.Set("direction", string(q.Direction))
	}
	return v
}

// CacheKey builds a deterministic key from every parameter
func (q ListQuery) CacheKey() string {
	return fmt.Sprintf("page=%d:size=%d:sort=%s:dir=%s", q.Page, q.Size, q.Sort, q.Direction)
}

// ArtistQuery adds the artist list filters
type ArtistQuery struct {
	ListQuery
	Name string
	Type ArtistType
}

// Values encodes the query and its filters; empty filters are omitted
func (q ArtistQuery) Values() url.Values {
	v := q.ListQuery.Values()
	if name := strings.TrimSpace(q.Name); name != "" {
		v.Set("nome", name)
	}
	if q.Type != "" {
		v.Set("tipo", string(q.Type))
	}
	return v
}

// CacheKey includes the filters
func (q ArtistQuery) CacheKey() string {
	return fmt.Sprintf("%s:nome=%s:tipo=%s", q.ListQuery.CacheKey(), strings.TrimSpace(q.Name), q.Type)
}

// Page is one page of a paginated list
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int
	TotalPages    int
}

type pageJSON[T any] struct {
	Content       []T  `json:"content"`
	Number        *int `json:"number,omitempty"`
	Size          *int `json:"size,omitempty"`
	CurrentPage   *int `json:"currentPage,omitempty"`
	PageSize      *int `json:"pageSize,omitempty"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
}

// UnmarshalJSON accepts both the number/size and currentPage/pageSize shapes
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	var raw pageJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Content = raw.Content
	if p.Content == nil {
		p.Content = []T{}
	}
	p.TotalElements = raw.TotalElements
	p.TotalPages = raw.TotalPages
	p.Number, p.Size = 0, 0
	switch {
	case raw.Number != nil:
		p.Number = *raw.Number
	case raw.CurrentPage != nil:
		p.Number = *raw.CurrentPage
	}
	switch {
	case raw.Size != nil:
		p.Size = *raw.Size
	case raw.PageSize != nil:
		p.Size = *raw.PageSize
	}
	return nil
}

// MarshalJSON writes the number/size shape
func (p Page[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(pageJSON[T]{
		Content:       p.Content,
		Number:        &p.Number,
		Size:          &p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	})
}
