package notifier

import (
	"encoding/json"

	"github.com/pevans/newsdigest/digest"
)

// LINE flex message wire types. Only the components a digest card uses are
// modelled.

type flexMessage struct {
	Type     string     `json:"type"`
	AltText  string     `json:"altText"`
	Contents flexBubble `json:"contents"`
}

type flexBubble struct {
	Type   string   `json:"type"`
	Header *flexBox `json:"header,omitempty"`
	Body   *flexBox `json:"body,omitempty"`
	Footer *flexBox `json:"footer,omitempty"`
}

type flexBox struct {
	Type     string `json:"type"`
	Layout   string `json:"layout"`
	Spacing  string `json:"spacing,omitempty"`
	Contents []any  `json:"contents"`
}

type flexText struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Size       string      `json:"size,omitempty"`
	Weight     string      `json:"weight,omitempty"`
	Color      string      `json:"color,omitempty"`
	Decoration string      `json:"decoration,omitempty"`
	Margin     string      `json:"margin,omitempty"`
	Wrap       bool        `json:"wrap,omitempty"`
	Action     *flexAction `json:"action,omitempty"`
}

type flexSeparator struct {
	Type   string `json:"type"`
	Margin string `json:"margin,omitempty"`
}

type flexAction struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	URI   string `json:"uri"`
}

const (
	linkColor  = "#1E6FD9"
	adColor    = "#8C8C8C"
	mutedColor = "#AAAAAA"

	// LINE rejects alt text longer than this
	maxAltTextRunes = 400
)

// FlexJSON returns the indented flex message the broadcast endpoint would
// receive for card.
func FlexJSON(card digest.Card) ([]byte, error) {
	return json.MarshalIndent(flexFromCard(card), "", "  ")
}

// flexFromCard serializes a digest card into a LINE flex bubble.
func flexFromCard(card digest.Card) flexMessage {
	header := &flexBox{
		Type:   "box",
		Layout: "vertical",
		Contents: []any{
			flexText{Type: "text", Text: card.Header.Title, Weight: "bold", Size: "xl"},
			flexText{Type: "text", Text: card.Header.Subtitle, Size: "sm", Color: mutedColor},
		},
	}

	rows := make([]any, 0, len(card.Body))
	for _, node := range card.Body {
		switch n := node.(type) {
		case digest.RowNode:
			rows = append(rows, flexRow(n))
		case digest.NoticeNode:
			rows = append(rows, flexText{Type: "text", Text: n.Text, Wrap: true, Color: mutedColor})
		}
	}
	body := &flexBox{Type: "box", Layout: "vertical", Spacing: "md", Contents: rows}

	footer := &flexBox{
		Type:   "box",
		Layout: "vertical",
		Contents: []any{
			flexSeparator{Type: "separator"},
			flexText{Type: "text", Text: card.Footer.Remark, Size: "sm", Color: mutedColor, Margin: "md", Wrap: true},
		},
	}

	return flexMessage{
		Type:    "flex",
		AltText: truncateRunes(card.AltText, maxAltTextRunes),
		Contents: flexBubble{
			Type:   "bubble",
			Header: header,
			Body:   body,
			Footer: footer,
		},
	}
}

// flexRow renders one item as a tappable text line. Promotional rows are
// greyed out instead of styled as links.
func flexRow(row digest.RowNode) flexText {
	text := flexText{
		Type:       "text",
		Text:       row.Text,
		Wrap:       true,
		Color:      linkColor,
		Decoration: "underline",
		Action:     &flexAction{Type: "uri", Label: "查看", URI: row.Link},
	}
	if row.Promotional {
		text.Color = adColor
		text.Decoration = ""
	}
	return text
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
