// Package extract pulls raw event objects out of JSON-LD blocks embedded in
// an HTML page.
//
// Blocks are located with a text scan rather than a DOM parse so that
// malformed markup elsewhere on the page cannot hide them. A block that is
// not valid JSON is skipped and scanning continues.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/okian/luma-sync/internal/domain/model"
)

var ldJSONBlock = regexp.MustCompile(`(?is)<script\b[^>]*\btype\s*=\s*["']?application/ld\+json["']?[^>]*>(.*?)</script\s*>`)

// Result is the output of a scan.
type Result struct {
	// Events are the raw event objects in block order. The same logical
	// event may appear more than once.
	Events []model.RawEvent
	// Blocks is the number of JSON-LD blocks found.
	Blocks int
	// Malformed is the number of blocks skipped because they were not JSON.
	Malformed int
}

// Blocks returns the body of every JSON-LD block in document order.
func Blocks(html string) []string {
	matches := ldJSONBlock.FindAllStringSubmatch(html, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// Extract scans html and returns every raw event object it can find.
func Extract(html string) Result {
	var res Result
	for _, body := range Blocks(html) {
		res.Blocks++
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			res.Malformed++
			continue
		}
		res.Events = append(res.Events, classify(v).events()...)
	}
	return res
}
