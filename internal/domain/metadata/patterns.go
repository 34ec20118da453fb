package metadata

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// metaPatterns matches a meta tag naming key in either attribute order.
// Each quote style gets its own alternative so a value may contain the
// other quote character.
func metaPatterns(key string) [2]*regexp.Regexp {
	k := regexp.QuoteMeta(key)
	name := `\b(?:property|name)\s*=\s*(?:"` + k + `"|'` + k + `')`
	content := `\bcontent\s*=\s*(?:"([^"]*)"|'([^']*)')`
	return [2]*regexp.Regexp{
		regexp.MustCompile(`(?is)<meta\b[^>]*?` + name + `[^>]*?` + content),
		regexp.MustCompile(`(?is)<meta\b[^>]*?` + content + `[^>]*?` + name),
	}
}

var (
	ogTitleRe       = metaPatterns("og:title")
	ogDescriptionRe = metaPatterns("og:description")
	ogImageRe       = metaPatterns("og:image")
	twitterImageRe  = metaPatterns("twitter:image")

	titleRe      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	lumaCoverRe  = regexp.MustCompile(`https://[a-z0-9.-]*lumacdn\.com/[^"'\s<>)]*event-covers/[^"'\s<>)]+`)
	dateAttrRe   = regexp.MustCompile(`(?i)\b(?:datetime|data-start-time)\s*=\s*["']([^"']+)["']`)
	timezoneRe   = regexp.MustCompile(`(?i)["']?\btimezone["']?\s*[:=]\s*["']([A-Za-z]+(?:/[A-Za-z0-9_+-]+)*)["']`)
	virtualRe    = regexp.MustCompile(`(?i)online|virtual|zoom`)
	hostedByRe   = regexp.MustCompile(`(?i)\bhosted\s+by\b[:\s]*(.*)`)
	hostSplitRe  = regexp.MustCompile(`\s*(?:,|&|\band\b|\by\b)\s*`)
	coverWidthRe = regexp.MustCompile(`width=\d+`)
	coverHeight  = regexp.MustCompile(`height=\d+`)
	coverQuality = regexp.MustCompile(`quality=\d+`)
)

func firstMeta(page string, res [2]*regexp.Regexp) *string {
	for _, re := range res {
		if m := re.FindStringSubmatch(page); m != nil {
			v := strings.TrimSpace(html.UnescapeString(m[1] + m[2]))
			if v != "" {
				return &v
			}
		}
	}
	return nil
}

// OGTitle returns the og:title meta content.
func OGTitle(page string) *string { return firstMeta(page, ogTitleRe) }

// HTMLTitle returns the text of the <title> element.
func HTMLTitle(page string) *string {
	m := titleRe.FindStringSubmatch(page)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(html.UnescapeString(m[1]))
	if v == "" {
		return nil
	}
	return &v
}

// OGDescription returns the og:description meta content.
func OGDescription(page string) *string { return firstMeta(page, ogDescriptionRe) }

// OGImage returns the og:image meta content.
func OGImage(page string) *string { return firstMeta(page, ogImageRe) }

// TwitterImage returns the twitter:image meta content.
func TwitterImage(page string) *string { return firstMeta(page, twitterImageRe) }

// CoverSize is the size the CDN cover URL is rewritten to.
type CoverSize struct {
	Width   int
	Height  int
	Quality int
}

// LumaCoverImage returns the first provider CDN event cover URL in page,
// with any width, height and quality parameters replaced by size.
func LumaCoverImage(page string, size CoverSize) *string {
	u := lumaCoverRe.FindString(page)
	if u == "" {
		return nil
	}
	u = html.UnescapeString(u)
	if size.Width > 0 {
		u = coverWidthRe.ReplaceAllString(u, "width="+strconv.Itoa(size.Width))
	}
	if size.Height > 0 {
		u = coverHeight.ReplaceAllString(u, "height="+strconv.Itoa(size.Height))
	}
	if size.Quality > 0 {
		u = coverQuality.ReplaceAllString(u, fmt.Sprintf("quality=%d", size.Quality))
	}
	return &u
}

// DateTimeAttr returns the first datetime= or data-start-time= attribute.
func DateTimeAttr(page string) *string {
	m := dateAttrRe.FindStringSubmatch(page)
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	return &v
}

// TimezoneAttr returns an IANA zone named by a timezone key or attribute.
func TimezoneAttr(page string) (string, bool) {
	m := timezoneRe.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// EventTypeFor infers the event type from the location text.
func EventTypeFor(location *string) string {
	if location != nil && virtualRe.MatchString(*location) {
		return eventTypeVirtual
	}
	return eventTypeInPerson
}

// HostsFromText finds the "Hosted by" line in text and splits the names.
// When the phrase ends its line the names are taken from the next line.
func HostsFromText(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := hostedByRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rest := strings.TrimSpace(m[1])
		for j := i + 1; rest == "" && j < len(lines); j++ {
			rest = strings.TrimSpace(lines[j])
		}
		return splitHosts(rest)
	}
	return []string{}
}

func splitHosts(s string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, name := range hostSplitRe.Split(s, -1) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
