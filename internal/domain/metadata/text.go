package metadata

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "br": true, "dd": true, "div": true,
	"dl": true, "dt": true, "footer": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

var spaceRe = regexp.MustCompile(`[ \t\r\f\v]+`)

// PageText flattens markup to text with one line per block element.
// Scripts and styles are dropped.
func PageText(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			if name == "#text" {
				b.WriteString(strings.ReplaceAll(c.Text(), "\n", " "))
				return
			}
			if blockTags[name] {
				b.WriteByte('\n')
				walk(c)
				b.WriteByte('\n')
				return
			}
			walk(c)
		})
	}
	walk(doc.Selection)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Hosts returns the host names announced on the page.
func Hosts(page string) []string {
	return HostsFromText(PageText(page))
}
