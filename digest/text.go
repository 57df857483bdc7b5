package digest

import (
	"fmt"
	"strings"
)

// RenderText renders d as a single plain-text message. The message starts
// with a newline because LINE Notify prefixes it with the token name.
func RenderText(d Digest, tmpl Template) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\n%s %s\n", tmpl.Title, d.DateLabel))
	sb.WriteString(tmpl.Rule + "\n")

	if d.IsEmpty() {
		sb.WriteString(tmpl.Empty + "\n")
	} else {
		for i, item := range d.Items {
			sb.WriteString(fmt.Sprintf("%d. %s\n🔗 %s\n\n", i+1, item.DisplayTitle, item.Link))
		}
	}

	sb.WriteString(tmpl.Rule + "\n")
	sb.WriteString(tmpl.Closing)

	return sb.String()
}
