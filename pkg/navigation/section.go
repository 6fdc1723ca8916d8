package navigation

import "strings"

// PageExternal is the synthetic to_page reported when the page unloads.
const PageExternal = "external"

// TopSection returns the first path segment: "/contribution/chat" -> "contribution".
func TopSection(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// SectionCrossing reports whether a transition leaves its top-level
// section. Unloading (to_page "external") always counts as crossing.
func SectionCrossing(fromPage, toPage string) bool {
	if toPage == PageExternal {
		return true
	}
	return TopSection(fromPage) != TopSection(toPage)
}
