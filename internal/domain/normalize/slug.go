package normalize

import (
	"regexp"
	"strings"
)

// slugPatterns is the family of provider URL shapes an event slug can be
// read from. The first match wins.
var slugPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?(?:lu\.ma|luma\.com)/event/([A-Za-z0-9][A-Za-z0-9_-]*)/?(?:[?#].*)?$`),
	regexp.MustCompile(`^https?://(?:www\.)?lu\.ma/([A-Za-z0-9][A-Za-z0-9_-]*)/?(?:[?#].*)?$`),
	regexp.MustCompile(`^https?://(?:www\.)?luma\.com/([A-Za-z0-9][A-Za-z0-9_-]*)/?(?:[?#].*)?$`),
}

// SlugFromURL returns the provider slug encoded in u.
func SlugFromURL(u string) (string, bool) {
	u = strings.TrimSpace(u)
	for _, re := range slugPatterns {
		if m := re.FindStringSubmatch(u); m != nil {
			return m[1], true
		}
	}
	return "", false
}
