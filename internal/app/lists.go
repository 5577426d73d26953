package app

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/listedit"
	"ai-shopping-list/internal/shopping"
	"ai-shopping-list/internal/suggest"
	"ai-shopping-list/internal/tui"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

func (a *App) ListLists(ctx context.Context, q api.ListQuery) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	resp, err := a.lists.List(ctx, q)
	if err != nil {
		return a.apiError(ctx, err)
	}

	pg := resp.Pagination
	if len(resp.Data) == 0 {
		a.println("No shopping lists yet. Create one with `create` or `generate`.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRODUCTS\tPLANNED\tSTORE\tSOURCE\tCREATED")
	for _, l := range resp.Data {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			l.ID,
			orDash(l.Title),
			l.ProductsCount,
			orDash(shopping.DisplayDate(l.PlannedShoppingDate)),
			orDash(l.StoreName),
			l.Source,
			createdAgo(l.CreatedAt),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	a.printf("\nPage %d of %d (%d lists)\n", pg.Page, max(pg.TotalPages, 1), pg.TotalItems)
	return nil
}

func (a *App) ShowList(ctx context.Context, id int64) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	resp, err := a.lists.Get(ctx, id)
	if err != nil {
		return a.apiError(ctx, err)
	}
	return a.printList(listedit.FromResponse(resp))
}

func (a *App) CreateList(ctx context.Context, req api.CreateShoppingListRequest) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	resp, err := a.lists.Create(ctx, req)
	if err != nil {
		return a.apiError(ctx, err)
	}
	a.printf("Created list %d.\n\n", resp.ID)
	return a.printList(listedit.FromResponse(resp))
}

func (a *App) GenerateList(ctx context.Context, req api.GenerateShoppingListRequest) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.println("Generating a list for your household...")
	resp, err := a.lists.Generate(ctx, req)
	if err != nil {
		return a.apiError(ctx, err)
	}
	a.printf("Generated list %d.\n\n", resp.ID)
	return a.printList(listedit.FromResponse(resp))
}

func (a *App) DeleteList(ctx context.Context, id int64) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.lists.Delete(ctx, id); err != nil {
		return a.apiError(ctx, err)
	}
	a.printf("Deleted list %d.\n", id)
	return nil
}

// NewEditor returns an editor with list id loaded.
func (a *App) NewEditor(ctx context.Context, id int64) (*listedit.Editor, error) {
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	editor := listedit.NewEditor(a.lists,
		listedit.WithLogger(a.logger),
		listedit.WithUnauthorizedHandler(a.auth.HandleUnauthorized),
	)
	if err := editor.Load(ctx, id); err != nil {
		return nil, a.apiError(ctx, err)
	}
	return editor, nil
}

// EditList opens the terminal editor on list id.
func (a *App) EditList(ctx context.Context, id int64) error {
	editor, err := a.NewEditor(ctx, id)
	if err != nil {
		return err
	}
	m, err := tui.Run(ctx, editor)
	if err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	if m.Deleted() {
		a.printf("Deleted list %d.\n", id)
	}
	return nil
}

// Suggest prints product ideas for list id. With add set, the suggestions
// are appended to the list and saved.
func (a *App) Suggest(ctx context.Context, id int64, hint string, limit int, add bool) error {
	if a.suggester == nil {
		return ErrSuggestionsDisabled
	}
	editor, err := a.NewEditor(ctx, id)
	if err != nil {
		return err
	}

	profile, err := a.auth.GetUserProfile(ctx)
	if err != nil {
		if a.auth.HandleUnauthorized(ctx, err) {
			return a.apiError(ctx, err)
		}
		profile = nil
	}

	req := suggest.RequestFor(editor.Working(), profile, hint)
	req.Limit = limit
	res, err := a.suggester.Suggest(ctx, req)
	if err != nil {
		return err
	}
	if len(res.Products) == 0 {
		a.println("No new suggestions for this list.")
		return nil
	}

	for i, s := range res.Products {
		a.printf("%2d. %s × %d", i+1, s.Name, s.Quantity)
		if s.Reason != "" {
			a.printf("  (%s)", s.Reason)
		}
		a.println()
	}
	a.printf("\n%s tokens in %s\n", humanize.Comma(int64(res.Usage.TotalTokens)), res.Latency.Round(time.Millisecond))

	if !add {
		return nil
	}
	for _, s := range res.Products {
		if _, err := editor.AddProduct(s.Name, s.Quantity); err != nil {
			a.logger.Info("suggestion rejected", zap.String("name", s.Name), zap.Error(err))
		}
	}
	if err := editor.Save(ctx); err != nil {
		return err
	}
	a.printf("Added %d products to list %d.\n", len(res.Products), id)
	return nil
}

func (a *App) printList(l listedit.List) error {
	a.printf("%s (#%d)\n", orDefault(l.Title, "Untitled list"), l.ID)
	var meta []string
	if l.StoreName != "" {
		meta = append(meta, "Store: "+l.StoreName)
	}
	if l.PlannedDate != "" {
		meta = append(meta, "Planned: "+shopping.DisplayDate(l.PlannedDate))
	}
	if l.Source != "" {
		meta = append(meta, "Source: "+l.Source)
	}
	if len(meta) > 0 {
		a.println(strings.Join(meta, "  ·  "))
	}
	a.println()

	if len(l.Products) == 0 {
		a.println("No products.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPRODUCT\tQTY\tSTATUS")
	for i, p := range l.Products {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i+1, p.Name, p.Quantity, p.StatusLabel)
	}
	return w.Flush()
}

func createdAgo(value string) string {
	t, err := shopping.ParseDate(value)
	if err != nil {
		return orDash(value)
	}
	return humanize.Time(t)
}

func orDash(s string) string {
	return orDefault(s, "-")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
