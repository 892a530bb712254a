// Package listutil parses the paging and flag parameters shared by list endpoints.
package listutil

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// DefaultLimit is the page size when the request names none.
const DefaultLimit = 100

// MaxLimit caps a single page.
const MaxLimit = 500

// ErrInvalidParam is wrapped by every parse error in this package.
var ErrInvalidParam = errors.New("invalid list parameter")

// Page carries limit/offset pagination parsed from a request.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage extracts limit and offset from URL query values.
// PRE: none
// POST: Limit is in 1..MaxLimit and Offset >= 0, or an error wrapping ErrInvalidParam
func ParsePage(q url.Values) (Page, error) {
	p := Page{Limit: DefaultLimit}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return Page{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidParam, MaxLimit)
		}
		p.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Page{}, fmt.Errorf("%w: offset must be a non-negative integer", ErrInvalidParam)
		}
		p.Offset = n
	}
	return p, nil
}

// ParseFlag reads a boolean query parameter; absent means false.
// PRE: none
// POST: Returns the flag or an error wrapping ErrInvalidParam
func ParseFlag(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", ErrInvalidParam, key)
	}
	return b, nil
}

// Next returns the page after p.
func (p Page) Next() Page {
	return Page{Limit: p.Limit, Offset: p.Offset + p.Limit}
}

// HasMore reports whether a full page came back, so a further page may exist.
func (p Page) HasMore(returned int) bool {
	return returned >= p.Limit
}
