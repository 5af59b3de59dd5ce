package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	termsField string
)

// statsCmd groups the read-only index introspection commands.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inspect on-disk index structure",
}

var statsIndexCmd = &cobra.Command{
	Use:   "index <name>",
	Short: "Whole-index statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		info, err := service.IndexStatistics(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("index:        %s\n", info.IndexName)
		fmt.Printf("analyzer:     %s\n", info.AnalyzerName)
		fmt.Printf("status:       %s\n", info.Status)
		fmt.Printf("directory:    %s\n", info.Directory)
		fmt.Printf("exists:       %v\n", info.Exists)
		if !info.Exists {
			return nil
		}
		fmt.Printf("optimized:    %v\n", info.Optimized)
		fmt.Printf("deletions:    %v (%d)\n", info.HasDeletions, info.DeletedCount)
		fmt.Printf("documents:    %d\n", info.DocCount)
		fmt.Printf("fields:       %d\n", info.FieldCount)
		fmt.Printf("segments:     %d\n", info.SegmentsCount)
		fmt.Printf("total size:   %d bytes\n", info.TotalSize)
		return nil
	},
}

var statsFilesCmd = &cobra.Command{
	Use:   "files <name>",
	Short: "List and classify index files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		files, err := service.IndexFiles(args[0])
		if err != nil {
			return err
		}
		for _, f := range files {
			kind := string(f.Kind)
			if kind == "" {
				kind = "-"
			}
			fmt.Printf("%-40s %-20s %d\n", f.Name, kind, f.Size)
		}
		return nil
	},
}

var statsSegmentsCmd = &cobra.Command{
	Use:   "segments <name>",
	Short: "List on-disk segments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		segments, err := service.IndexSegmentInfos(args[0])
		if err != nil {
			return err
		}
		for _, seg := range segments {
			fmt.Printf("%-40s %d bytes compound=%v\n", seg.Name, seg.Size, seg.CompoundFile)
		}
		return nil
	},
}

var statsFieldsCmd = &cobra.Command{
	Use:   "fields <name>",
	Short: "Per-field term and document-frequency totals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		infos, err := service.IndexFieldInfos(args[0])
		if err != nil {
			return err
		}
		for _, fi := range infos {
			fmt.Printf("%-32s terms=%d doc_freq=%d\n", fi.Name, fi.TermCount, fi.DocFreq)
		}
		return nil
	},
}

var statsTermsCmd = &cobra.Command{
	Use:   "terms <name>",
	Short: "List a field's term dictionary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		terms, err := service.IndexTerms(args[0], termsField)
		if err != nil {
			return err
		}
		for _, t := range terms {
			fmt.Printf("%-24s %-32s %d\n", t.Field, t.Term, t.DocFreq)
		}
		return nil
	},
}

// triggerCmd emits the change-log trigger DDL for a relation.
var (
	triggerMultiAction bool
	triggerPosition    int
)

var triggerCmd = &cobra.Command{
	Use:   "make-trigger <relation>",
	Short: "Emit change-log trigger DDL for a relation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		script, err := service.MakeTrigger(args[0], triggerMultiAction, triggerPosition)
		if err != nil {
			return err
		}
		fmt.Print(script.DDL)
		return nil
	},
}

func init() {
	statsTermsCmd.Flags().StringVar(&termsField, "field", "", "restrict to one field")

	triggerCmd.Flags().BoolVar(&triggerMultiAction, "multi-action", true, "emit one combined script per key column")
	triggerCmd.Flags().IntVar(&triggerPosition, "position", 100, "trigger position hint")

	statsCmd.AddCommand(statsIndexCmd)
	statsCmd.AddCommand(statsFilesCmd)
	statsCmd.AddCommand(statsSegmentsCmd)
	statsCmd.AddCommand(statsFieldsCmd)
	statsCmd.AddCommand(statsTermsCmd)
}
