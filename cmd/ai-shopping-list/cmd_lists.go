package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"ai-shopping-list/internal/api"

	"github.com/spf13/cobra"
)

var (
	listsPage     int
	listsPageSize int
	listsSort     string

	listTitle string
	listStore string
	listDate  string
	listItems []string

	deleteYes bool

	suggestHint  string
	suggestLimit int
	suggestAdd   bool
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "List your shopping lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.ListLists(cmd.Context(), api.ListQuery{
			Page:     listsPage,
			PageSize: listsPageSize,
			Sort:     listsSort,
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a shopping list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return application.ShowList(cmd.Context(), id)
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a shopping list",
	Long: `Create a list. Products are given as NAME or NAME=QUANTITY.

Example:
  ai-shopping-list create --title "Weekend" --store Lidl --date 2026-05-02 \
    --item Milk=2 --item Bread`,
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := parseItems(listItems)
		if err != nil {
			return err
		}
		return application.CreateList(cmd.Context(), api.CreateShoppingListRequest{
			Title:               listTitle,
			Products:            products,
			PlannedShoppingDate: listDate,
			StoreName:           listStore,
		})
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Let the server generate a list from your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.GenerateList(cmd.Context(), api.GenerateShoppingListRequest{
			Title:               listTitle,
			PlannedShoppingDate: listDate,
			StoreName:           listStore,
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a shopping list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if !deleteYes {
			fmt.Fprintf(cmd.OutOrStdout(), "Delete list %d? This cannot be undone. [y/N] ", id)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Kept.")
				return nil
			}
		}
		return application.DeleteList(cmd.Context(), id)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a shopping list interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return application.EditList(cmd.Context(), id)
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <id>",
	Short: "Ask the assistant for products missing from a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return application.Suggest(cmd.Context(), id, suggestHint, suggestLimit, suggestAdd)
	},
}

func init() {
	listsCmd.Flags().IntVar(&listsPage, "page", 1, "Page number")
	listsCmd.Flags().IntVar(&listsPageSize, "page-size", 10, "Lists per page")
	listsCmd.Flags().StringVar(&listsSort, "sort", api.SortNewest, "Sort order: newest, oldest or name")

	for _, c := range []*cobra.Command{createCmd, generateCmd} {
		c.Flags().StringVar(&listTitle, "title", "", "List title")
		c.Flags().StringVar(&listStore, "store", "", "Store name")
		c.Flags().StringVar(&listDate, "date", "", "Planned shopping date (YYYY-MM-DD)")
	}
	createCmd.Flags().StringArrayVar(&listItems, "item", nil, "Product as NAME or NAME=QUANTITY (repeatable)")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")

	suggestCmd.Flags().StringVar(&suggestHint, "hint", "", "Extra instructions for the assistant")
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 8, "Maximum number of suggestions")
	suggestCmd.Flags().BoolVar(&suggestAdd, "add", false, "Add the suggestions to the list")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid list id %q", s)
	}
	return id, nil
}

func parseItems(items []string) ([]api.ProductRequest, error) {
	out := make([]api.ProductRequest, 0, len(items))
	for _, item := range items {
		name, qty, found := strings.Cut(item, "=")
		p := api.ProductRequest{Name: strings.TrimSpace(name), Quantity: 1}
		if found {
			n, err := strconv.Atoi(strings.TrimSpace(qty))
			if err != nil {
				return nil, fmt.Errorf("invalid quantity in %q", item)
			}
			p.Quantity = n
		}
		out = append(out, p)
	}
	return out, nil
}
