package main

import (
	"html"
	"regexp"
)

var tagPattern = regexp.MustCompile(`</?[a-z]+>`)

// stripTags turns a Telegram HTML message into plain terminal text.
func stripTags(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}
