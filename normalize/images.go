package normalize

import "strings"

// imageBlocklist marks URLs that are site chrome rather than inventory
// photos. Matched case-insensitively as substrings.
var imageBlocklist = []string{
	"logo",
	"icon",
	"placeholder",
	"spacer",
	"badge",
	"favicon",
	"sprite",
	"blank.",
	"pixel.",
	"banner",
	"loading",
	"no-image",
	"noimage",
}

// FilterImages drops blocklisted URLs, preserving the relative order of
// survivors. The first survivor becomes the primary image.
func FilterImages(urls []string) []string {
	var out []string
	for _, u := range urls {
		if u == "" || isBlocklisted(u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func isBlocklisted(url string) bool {
	lower := strings.ToLower(url)
	for _, bad := range imageBlocklist {
		if strings.Contains(lower, bad) {
			return true
		}
	}
	return false
}
