package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Render writes a plain-text rendering of the page
func Render(w io.Writer, p *Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "== Products (search=%q category=%q)\n", p.Search.Value(), p.Category.Value())
	shown := 0
	for _, card := range p.Grid.Cards() {
		if !card.Visible {
			continue
		}
		shown++
		fmt.Fprintf(tw, "  %s\t%s\t%s\t₹%s\tqty %d\n",
			card.ProductID, card.Title, card.Category, card.Price.StringFixed(2), card.Quantity)
	}
	if shown == 0 {
		fmt.Fprintln(tw, "  (no products)")
	}

	fmt.Fprintln(tw, "== Cart")
	items := p.Cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(tw, "  (empty)")
	}
	for _, item := range items {
		fmt.Fprintf(tw, "  %s\t%s\tx%d\t₹%s\n",
			item.ProductID, item.DisplayName(), item.Quantity, item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(tw, "  Total:\t₹%s\n", p.Cart.Total().StringFixed(2))

	fmt.Fprintf(tw, "== Fields (language=%s)\n", p.Language.Value())
	for _, id := range p.Form.IDs() {
		field, _ := p.Form.Field(id)
		label := LabelIdle
		if trigger, ok := p.Trigger(id); ok {
			label = trigger.Label()
		}
		fmt.Fprintf(tw, "  %s\t%q\t[%s]\n", id, field.Value(), label)
	}

	notices := p.Board.Notices()
	if len(notices) > 0 {
		fmt.Fprintln(tw, "== Notices")
	}
	for _, n := range notices {
		prefix := strings.ToUpper(n.Kind)
		if n.Anchor != "" {
			prefix += " " + n.Anchor
		}
		fmt.Fprintf(tw, "  [%s]\t%s\n", prefix, n.Text)
	}

	return tw.Flush()
}
