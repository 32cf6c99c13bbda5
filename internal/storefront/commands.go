package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/udyambharat/storefront-client/internal/catalog"
	"github.com/udyambharat/storefront-client/internal/view"
)

var (
	// ErrQuit is returned by the quit command
	ErrQuit = errors.New("quit")
	// ErrUsage is returned for malformed or unknown commands
	ErrUsage = errors.New("usage")
)

// MsgProductsFailed is flashed when the product listing cannot be fetched
const MsgProductsFailed = "Error loading products"

const helpText = `Commands:
  products [category]   fetch the product grid
  search <text>         filter cards by title or description
  category <name|->     filter cards by category ("-" clears)
  inc <id> | dec <id>   step a card's quantity
  qty <id> <n>          set a card's quantity
  add <id> [n]          add a product to the cart
  remove <id>           remove a product from the cart
  cart                  reload the cart
  checkout              place the order
  voice <field> [lang]  record and transcribe into a field
  wait                  wait for running recordings to finish
  field <id> [text]     show or set a field
  show                  render the page
  help                  show this help
  quit                  exit
`

type command func(a *App, ctx context.Context, w io.Writer, args []string) error

var commands = map[string]command{
	"products": (*App).products,
	"search":   (*App).searchText,
	"category": (*App).category,
	"inc":      (*App).inc,
	"dec":      (*App).dec,
	"qty":      (*App).qty,
	"add":      (*App).add,
	"remove":   (*App).remove,
	"cart":     (*App).reloadCart,
	"checkout": (*App).checkout,
	"voice":    (*App).startVoice,
	"wait":     (*App).wait,
	"field":    (*App).field,
	"show":     (*App).show,
	"help":     (*App).help,
	"quit":     (*App).quit,
	"exit":     (*App).quit,
}

// Execute parses and runs a single command line
func (a *App) Execute(ctx context.Context, w io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, ok := commands[strings.ToLower(fields[0])]
	if !ok {
		return fmt.Errorf("%w: unknown command %q, try help", ErrUsage, fields[0])
	}
	return cmd(a, ctx, w, fields[1:])
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", ErrUsage, format)
}

func (a *App) products(ctx context.Context, w io.Writer, args []string) error {
	query := catalog.Query{}
	if len(args) > 0 {
		query.Category = strings.Join(args, " ")
	}

	products, err := a.catalog.List(ctx, query)
	if err != nil {
		a.page.Board.Flash(view.KindError, MsgProductsFailed)
		return err
	}

	a.page.Grid.Replace(products)
	a.search.Apply()
	fmt.Fprintf(w, "Loaded %d products\n", len(products))
	return nil
}

func (a *App) searchText(ctx context.Context, w io.Writer, args []string) error {
	a.page.Search.Assign(strings.Join(args, " "))
	a.search.Flush()
	return nil
}

func (a *App) category(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		return usage("category <name|->")
	}
	value := strings.Join(args, " ")
	if value == "-" {
		value = ""
	}
	a.page.Category.Assign(value)
	return nil
}

func (a *App) card(id string) (*view.Card, error) {
	card, ok := a.page.Grid.Card(id)
	if !ok {
		return nil, fmt.Errorf("%w: no product card %q", ErrUsage, id)
	}
	return card, nil
}

func (a *App) inc(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 1 {
		return usage("inc <id>")
	}
	card, err := a.card(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s quantity %d\n", card.ProductID, card.Quantity.Inc())
	return nil
}

func (a *App) dec(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 1 {
		return usage("dec <id>")
	}
	card, err := a.card(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s quantity %d\n", card.ProductID, card.Quantity.Dec())
	return nil
}

func (a *App) qty(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 2 {
		return usage("qty <id> <n>")
	}
	card, err := a.card(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return usage("qty <id> <n>: quantity must be a number")
	}
	fmt.Fprintf(w, "%s quantity %d\n", card.ProductID, card.Quantity.Set(n))
	return nil
}

func (a *App) add(ctx context.Context, w io.Writer, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("add <id> [n]")
	}
	if len(args) == 2 {
		if err := a.qty(ctx, io.Discard, args); err != nil {
			return err
		}
	}
	return a.cart.Add(ctx, args[0])
}

func (a *App) remove(ctx context.Context, w io.Writer, args []string) error {
	if len(args) != 1 {
		return usage("remove <id>")
	}
	return a.cart.Remove(ctx, args[0])
}

func (a *App) reloadCart(ctx context.Context, w io.Writer, args []string) error {
	return a.cart.Load(ctx)
}

func (a *App) checkout(ctx context.Context, w io.Writer, args []string) error {
	return a.cart.Checkout(ctx)
}

func (a *App) startVoice(ctx context.Context, w io.Writer, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("voice <field> [lang]")
	}
	if len(args) == 2 {
		a.page.Language.Assign(args[1])
	}

	if _, err := a.voice.Start(ctx, args[0], ""); err != nil {
		return err
	}
	fmt.Fprintf(w, "Recording %s for %s\n", args[0], a.config.Voice.GetRecordDuration())
	return nil
}

func (a *App) wait(ctx context.Context, w io.Writer, args []string) error {
	for _, id := range a.page.Form.IDs() {
		session, ok := a.voice.Active(id)
		if !ok {
			continue
		}

		select {
		case <-session.Done():
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := session.Err(); err != nil {
			fmt.Fprintf(w, "%s: %v\n", id, err)
			continue
		}
		fmt.Fprintf(w, "%s: %q\n", id, session.Transcript())
	}
	return nil
}

func (a *App) field(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		return usage("field <id> [text]")
	}
	f, ok := a.page.Form.Field(args[0])
	if !ok {
		return fmt.Errorf("%w: no field %q", ErrUsage, args[0])
	}
	if len(args) > 1 {
		f.Assign(strings.Join(args[1:], " "))
	}
	fmt.Fprintf(w, "%s = %q\n", args[0], f.Value())
	return nil
}

func (a *App) show(ctx context.Context, w io.Writer, args []string) error {
	return a.Render(w)
}

func (a *App) help(ctx context.Context, w io.Writer, args []string) error {
	_, err := io.WriteString(w, helpText)
	return err
}

func (a *App) quit(ctx context.Context, w io.Writer, args []string) error {
	return ErrQuit
}
