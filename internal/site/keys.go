package site

import (
	"mime"
	"path"
	"strings"
)

const (
	fallbackContentType = "text/html"
	htmlContentType     = "text/html; charset=utf-8"
)

// KeyForPath drops everything up to and including the first slash, which is the site
// output root in an enumerated path. p is slash separated; a backslash is an ordinary
// name character. A path without a slash is returned as is.
func KeyForPath(p string) string {
	if i := strings.Index(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// ContentTypeFor looks the type up by extension. Unknown extensions are served as
// text/html, and text/html itself always carries an explicit utf-8 charset.
func ContentTypeFor(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return fallbackContentType
	}

	typ := mime.TypeByExtension(ext)
	if typ == "" {
		return fallbackContentType
	}
	if mediaType, _, err := mime.ParseMediaType(typ); err == nil {
		typ = mediaType
	}
	if typ == "text/html" {
		return htmlContentType
	}
	return typ
}
