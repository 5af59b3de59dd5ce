package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ibsurgeon/fts-udr-go/internal/routines"
)

var (
	// search flags
	searchLimit   int
	searchExplain bool

	// highlight flags
	highlightAnalyzer string
	highlightSize     int
	highlightLeftTag  string
	highlightRightTag string
	highlightMax      int
)

// searchCmd runs a query against an index.
var searchCmd = &cobra.Command{
	Use:   "search <index> <query>",
	Short: "Search a full-text index",
	Long: `Search a built index and print matching row identities with scores.

Examples:
  ftsudr search BOOK_FTS raven
  ftsudr search BOOK_FTS "midnight dreary" --limit 10 --explain`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()

		queryStr := strings.Join(args[1:], " ")
		hits, err := service.Search(context.Background(), args[0], queryStr, searchLimit, searchExplain)
		if err != nil {
			return err
		}
		for _, h := range hits {
			switch {
			case h.ID != nil:
				fmt.Printf("%s.%s = %d  score=%.4f\n", h.Relation, h.KeyField, *h.ID, h.Score)
			case len(h.UUID) > 0:
				fmt.Printf("%s.%s = %s  score=%.4f\n", h.Relation, h.KeyField, formatUUID(h.UUID), h.Score)
			default:
				fmt.Printf("%s.%s = %s  score=%.4f\n", h.Relation, h.KeyField, hex.EncodeToString(h.DBKey), h.Score)
			}
			if h.Explained != "" {
				fmt.Printf("  %s\n", h.Explained)
			}
		}
		fmt.Printf("%d hit(s)\n", len(hits))
		return nil
	},
}

// analyzeCmd prints an analyzer's terms for a text.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <analyzer> <text>",
	Short: "Tokenize a text with a named analyzer",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()

		terms, err := service.Analyze(strings.Join(args[1:], " "), args[0])
		if err != nil {
			return err
		}
		for _, term := range terms {
			fmt.Println(term)
		}
		return nil
	},
}

// escapeQueryCmd escapes query-syntax specials.
var escapeQueryCmd = &cobra.Command{
	Use:   "escape-query <query>",
	Short: "Escape query-syntax special characters",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		fmt.Println(service.EscapeQuery(strings.Join(args, " ")))
		return nil
	},
}

// highlightCmd renders the best fragment(s) of a text for a query.
var highlightCmd = &cobra.Command{
	Use:   "highlight <query> <text>",
	Short: "Render the best matching fragments of a text",
	Long: `Render the best fragment(s) of a text for a query, wrapping matches
in the configured tags.

Examples:
  ftsudr highlight midnight "Once upon a midnight dreary" --analyzer english
  ftsudr highlight raven "..." --max-fragments 3 --size 64`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()

		text := strings.Join(args[1:], " ")
		if highlightMax <= 1 {
			fragment, err := service.BestFragment(text, args[0], highlightAnalyzer, "",
				highlightSize, highlightLeftTag, highlightRightTag)
			if err != nil {
				return err
			}
			fmt.Println(fragment)
			return nil
		}
		fragments, err := service.BestFragments(text, args[0], highlightAnalyzer, "",
			highlightSize, highlightLeftTag, highlightRightTag, highlightMax)
		if err != nil {
			return err
		}
		for _, f := range fragments {
			fmt.Println(f)
		}
		return nil
	},
}

// formatUUID renders a 16-byte key in canonical UUID form, falling back
// to raw hex for odd lengths.
func formatUUID(raw []byte) string {
	if u, err := uuid.FromBytes(raw); err == nil {
		return u.String()
	}
	return hex.EncodeToString(raw)
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", routines.DefaultSearchLimit, "maximum rows")
	searchCmd.Flags().BoolVar(&searchExplain, "explain", false, "include score explanations")

	highlightCmd.Flags().StringVar(&highlightAnalyzer, "analyzer", "standard", "analyzer name")
	highlightCmd.Flags().IntVar(&highlightSize, "size", 512, "fragment size in octets")
	highlightCmd.Flags().StringVar(&highlightLeftTag, "left-tag", "<b>", "opening tag")
	highlightCmd.Flags().StringVar(&highlightRightTag, "right-tag", "</b>", "closing tag")
	highlightCmd.Flags().IntVar(&highlightMax, "max-fragments", 1, "number of fragments")
}
