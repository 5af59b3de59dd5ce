package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// create flags
	createAnalyzer    string
	createKeyField    string
	createDescription string

	// field flags
	fieldBoost float64

	// list flags
	listSegments bool
)

// indexCmd groups the index catalog and lifecycle commands.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage full-text indexes",
}

var indexCreateCmd = &cobra.Command{
	Use:   "create <name> <relation>",
	Short: "Create an index",
	Long: `Create a full-text index over a relation.

The key segment is auto-selected from the relation's primary key (or the
row address when there is none); pass --key to choose explicitly.

Examples:
  ftsudr index create BOOK_FTS BOOKS --analyzer english
  ftsudr index create NOTE_FTS NOTES --key NOTE_UUID --description "note search"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := service.CreateIndex(args[0], args[1], createAnalyzer, createKeyField, createDescription); err != nil {
			return err
		}
		fmt.Printf("index %s created\n", args[0])
		return nil
	},
}

var indexDropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Drop an index and its on-disk directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := service.DropIndex(args[0]); err != nil {
			return err
		}
		fmt.Printf("index %s dropped\n", args[0])
		return nil
	},
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		indexes, err := service.ListIndexes(listSegments)
		if err != nil {
			return err
		}
		for _, idx := range indexes {
			fmt.Printf("%-24s %-24s %-12s %s\n", idx.Name, idx.Relation, idx.Analyzer, idx.Status)
			for _, seg := range idx.Segments {
				marker := " "
				if seg.IsKey {
					marker = "*"
				}
				if seg.Boost != nil {
					fmt.Printf("  %s %-22s boost=%g\n", marker, seg.FieldName, *seg.Boost)
				} else {
					fmt.Printf("  %s %s\n", marker, seg.FieldName)
				}
			}
		}
		return nil
	},
}

var indexActivateCmd = &cobra.Command{
	Use:   "activate <name>",
	Short: "Reactivate an inactive index (lands on needs-rebuild)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(args[0], true)
	},
}

var indexDeactivateCmd = &cobra.Command{
	Use:   "deactivate <name>",
	Short: "Deactivate an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(args[0], false)
	},
}

func setActive(name string, active bool) error {
	service, _, cleanup, err := openService()
	if err != nil {
		return err
	}
	defer cleanup()
	if err := service.SetIndexActive(name, active); err != nil {
		return err
	}
	fmt.Printf("index %s updated\n", name)
	return nil
}

var indexAddFieldCmd = &cobra.Command{
	Use:   "add-field <index> <field>",
	Short: "Bind a field to an index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		var boost *float64
		if cmd.Flags().Changed("boost") {
			boost = &fieldBoost
		}
		if err := service.AddIndexField(args[0], args[1], boost); err != nil {
			return err
		}
		fmt.Printf("field %s added to %s\n", args[1], args[0])
		return nil
	},
}

var indexDropFieldCmd = &cobra.Command{
	Use:   "drop-field <index> <field>",
	Short: "Remove a field binding from an index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := service.DropIndexField(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("field %s dropped from %s\n", args[1], args[0])
		return nil
	},
}

var indexSetBoostCmd = &cobra.Command{
	Use:   "set-boost <index> <field>",
	Short: "Set a field's boost factor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		var boost *float64
		if cmd.Flags().Changed("boost") {
			boost = &fieldBoost
		}
		if err := service.SetIndexFieldBoost(args[0], args[1], boost); err != nil {
			return err
		}
		fmt.Printf("boost updated on %s.%s\n", args[0], args[1])
		return nil
	},
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild <name>",
	Short: "Rebuild an index from a full relation scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := service.RebuildIndex(args[0]); err != nil {
			return err
		}
		fmt.Printf("index %s rebuilt\n", args[0])
		return nil
	},
}

var indexOptimizeCmd = &cobra.Command{
	Use:   "optimize <name>",
	Short: "Request segment compaction for an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := service.OptimizeIndex(args[0]); err != nil {
			return err
		}
		fmt.Printf("index %s optimized\n", args[0])
		return nil
	},
}

func init() {
	indexCreateCmd.Flags().StringVar(&createAnalyzer, "analyzer", "", "analyzer name (default standard)")
	indexCreateCmd.Flags().StringVar(&createKeyField, "key", "", "key field (default: primary key or row address)")
	indexCreateCmd.Flags().StringVar(&createDescription, "description", "", "free-text description")

	indexListCmd.Flags().BoolVar(&listSegments, "segments", false, "include field bindings")

	indexAddFieldCmd.Flags().Float64Var(&fieldBoost, "boost", 0, "field boost factor")
	indexSetBoostCmd.Flags().Float64Var(&fieldBoost, "boost", 0, "field boost factor (omit to clear)")

	indexCmd.AddCommand(indexCreateCmd)
	indexCmd.AddCommand(indexDropCmd)
	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexActivateCmd)
	indexCmd.AddCommand(indexDeactivateCmd)
	indexCmd.AddCommand(indexAddFieldCmd)
	indexCmd.AddCommand(indexDropFieldCmd)
	indexCmd.AddCommand(indexSetBoostCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexOptimizeCmd)
}
