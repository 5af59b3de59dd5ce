package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// analyzer create flags
	analyzerBase        string
	analyzerDescription string
)

// analyzerCmd groups the analyzer catalog commands.
var analyzerCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Manage analyzers and stop words",
}

var analyzerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and user-defined analyzers",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Println("system analyzers:")
		for _, info := range service.SystemAnalyzers() {
			stopNote := ""
			if info.StopWordsSupported {
				stopNote = " (stop words)"
			}
			fmt.Printf("  %s%s\n", info.Name, stopNote)
		}

		users, err := service.ListAnalyzers()
		if err != nil {
			return err
		}
		if len(users) > 0 {
			fmt.Println("user analyzers:")
			for _, ua := range users {
				fmt.Printf("  %s (base %s)\n", ua.Name, ua.BaseAnalyzer)
			}
		}
		return nil
	},
}

var analyzerCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Define a user analyzer on a stop-word-capable base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := service.CreateAnalyzer(args[0], analyzerBase, analyzerDescription); err != nil {
			return err
		}
		fmt.Printf("analyzer %s created\n", args[0])
		return nil
	},
}

var analyzerDropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Drop a user analyzer and its stop words",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := service.DropAnalyzer(args[0]); err != nil {
			return err
		}
		fmt.Printf("analyzer %s dropped\n", args[0])
		return nil
	},
}

var analyzerStopWordsCmd = &cobra.Command{
	Use:   "stop-words <name>",
	Short: "List a user analyzer's stop words",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		words, err := service.AnalyzerStopWords(args[0])
		if err != nil {
			return err
		}
		for _, w := range words {
			fmt.Println(w)
		}
		return nil
	},
}

var analyzerAddStopWordCmd = &cobra.Command{
	Use:   "add-stop-word <analyzer> <word>",
	Short: "Add a stop word to a user analyzer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := service.AddStopWord(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("stop word added to %s\n", args[0])
		return nil
	},
}

var analyzerDropStopWordCmd = &cobra.Command{
	Use:   "drop-stop-word <analyzer> <word>",
	Short: "Remove a stop word from a user analyzer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := service.DropStopWord(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("stop word dropped from %s\n", args[0])
		return nil
	},
}

func init() {
	analyzerCreateCmd.Flags().StringVar(&analyzerBase, "base", "", "base analyzer name (required)")
	analyzerCreateCmd.Flags().StringVar(&analyzerDescription, "description", "", "free-text description")
	analyzerCreateCmd.MarkFlagRequired("base")

	analyzerCmd.AddCommand(analyzerListCmd)
	analyzerCmd.AddCommand(analyzerCreateCmd)
	analyzerCmd.AddCommand(analyzerDropCmd)
	analyzerCmd.AddCommand(analyzerStopWordsCmd)
	analyzerCmd.AddCommand(analyzerAddStopWordCmd)
	analyzerCmd.AddCommand(analyzerDropStopWordCmd)
}
