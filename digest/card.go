package digest

import "fmt"

// Node is one element of a card body.
type Node interface {
	node()
}

// HeaderNode is the card's title block.
type HeaderNode struct {
	Title    string
	Subtitle string
}

// RowNode is a pressable line that opens Link.
type RowNode struct {
	Index       int
	Text        string
	Link        string
	Promotional bool
}

// NoticeNode is a plain line of text with no action.
type NoticeNode struct {
	Text string
}

// FooterNode closes the card with a separator and a remark.
type FooterNode struct {
	Remark string
}

func (RowNode) node()    {}
func (NoticeNode) node() {}

// Card is the rich-card form of a digest. It describes structure only; the
// notifier serializes it to whatever wire format the endpoint expects.
type Card struct {
	AltText string
	Header  HeaderNode
	Body    []Node
	Footer  FooterNode
}

// RenderCard renders d as a card with one row per item, or a single notice
// when d is empty.
func RenderCard(d Digest, tmpl Template) Card {
	body := make([]Node, 0, len(d.Items))
	if d.IsEmpty() {
		body = append(body, NoticeNode{Text: tmpl.Empty})
	}
	for i, item := range d.Items {
		body = append(body, RowNode{
			Index:       i + 1,
			Text:        fmt.Sprintf("%d. %s", i+1, item.DisplayTitle),
			Link:        item.Link,
			Promotional: item.IsPromotional,
		})
	}

	return Card{
		AltText: tmpl.AltTextFor(d.DateLabel),
		Header: HeaderNode{
			Title:    tmpl.CardTitle,
			Subtitle: d.DateLabel,
		},
		Body:   body,
		Footer: FooterNode{Remark: tmpl.Closing},
	}
}
