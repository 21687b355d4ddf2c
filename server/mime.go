package server

import "strings"

const defaultContentType = "text/html"

// contentTypes is checked in order; the first matching suffix wins.
var contentTypes = []struct {
	suffix      string
	contentType string
}{
	{".js", "text/javascript"},
	{".json", "application/json"},
	{".png", "image/png"},
	{".css", "text/css"},
	{".svg", "image/svg+xml"},
	{".ico", "image/x-icon"},
}

// getContentType determines the MIME type from the path suffix
func getContentType(path string) string {
	for _, ct := range contentTypes {
		if strings.HasSuffix(path, ct.suffix) {
			return ct.contentType
		}
	}
	return defaultContentType
}
