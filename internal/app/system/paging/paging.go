// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size when the request names none.
const DefaultLimit = 50

// MaxLimit caps the page size a client can ask for.
const MaxLimit = 200

// Window is an offset page: at most Limit rows after skipping Skip.
type Window struct {
	Limit int64
	Skip  int64
}

// Parse reads the "limit" and "skip" query parameters. A missing, invalid,
// or zero limit becomes DefaultLimit, and limits above MaxLimit are capped.
// A missing or negative skip becomes 0.
func Parse(r *http.Request) Window {
	w := Window{Limit: DefaultLimit}
	if n, ok := parseInt(query.Get(r, "limit")); ok && n > 0 {
		w.Limit = min(n, MaxLimit)
	}
	if n, ok := parseInt(query.Get(r, "skip")); ok {
		w.Skip = n
	}
	return w
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
