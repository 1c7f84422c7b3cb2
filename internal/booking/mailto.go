package booking

import (
	"net/url"
	"strings"
)

// MailtoLink builds a mailto: URL with a pre-filled subject and body. Spaces
// are encoded as %20, since mail clients do not decode "+".
func MailtoLink(to, subject, body string) string {
	return "mailto:" + to + "?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(body)
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
