package ordinato

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soundprediction/ordinato"
	"github.com/soundprediction/ordinato/pkg/config"
	"github.com/soundprediction/ordinato/pkg/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank <query> [file...]",
	Short: "Rank documents against a query",
	Long: `Rank documents by relevance to a query using the configured scoring backend.

Each file argument becomes one document. With no file arguments, documents are
read from stdin, one per line. Results are printed in descending score order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().Int("top-k", 0, "Maximum number of documents to return (0 uses the configured default)")
	rankCmd.Flags().Float64("threshold", 0, "Minimum score to keep a document")
	rankCmd.Flags().Bool("raw-scores", false, "Print raw model scores instead of calibrated probabilities")
	rankCmd.Flags().Bool("json", false, "Print results as JSON")

	rankCmd.Flags().String("provider", "", "Scoring backend (embedeverything, reranker, openai, rustbert, embedding, local, mock)")
	rankCmd.Flags().String("model", "", "Cross-encoder model name or path")
	rankCmd.Flags().String("base-url", "", "Base URL for the reranker provider")
	rankCmd.Flags().String("api-key", "", "API key for the reranker provider")
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("provider") {
		cfg.CrossEncoder.Provider, _ = cmd.Flags().GetString("provider")
	}
	if cmd.Flags().Changed("model") {
		cfg.CrossEncoder.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("base-url") {
		cfg.CrossEncoder.BaseURL, _ = cmd.Flags().GetString("base-url")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.CrossEncoder.APIKey, _ = cmd.Flags().GetString("api-key")
	}

	query := args[0]
	documents, err := readDocuments(args[1:])
	if err != nil {
		return err
	}
	if len(documents) == 0 {
		return fmt.Errorf("no documents to rank")
	}

	ranker, _, err := initializeRanker(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize ranker: %w", err)
	}
	defer ranker.Close()

	ctx := context.Background()
	if err := ranker.WarmUp(ctx); err != nil {
		return fmt.Errorf("failed to warm up ranker: %w", err)
	}

	options := &ordinato.RankOptions{}
	if cmd.Flags().Changed("top-k") {
		topK, _ := cmd.Flags().GetInt("top-k")
		options.TopK = ordinato.Int(topK)
	}
	if cmd.Flags().Changed("threshold") {
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		options.ScoreThreshold = ordinato.Float64(threshold)
	}
	if raw, _ := cmd.Flags().GetBool("raw-scores"); raw {
		options.ScaleScore = ordinato.Bool(false)
	}

	ranked, err := ranker.Rank(ctx, query, documents, options)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ranked)
	}

	for i, doc := range ranked {
		fmt.Printf("%2d. %.4f  %s\n", i+1, *doc.Score, summarize(doc))
	}
	return nil
}

// readDocuments builds one document per file argument, or one per stdin line
// when no files are given.
func readDocuments(paths []string) ([]types.Document, error) {
	if len(paths) == 0 {
		return readStdinDocuments()
	}

	documents := make([]types.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		documents = append(documents, types.Document{
			Content: string(data),
			Meta:    map[string]interface{}{"file": filepath.Base(path)},
		})
	}
	return documents, nil
}

func readStdinDocuments() ([]types.Document, error) {
	var documents []types.Document
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		documents = append(documents, types.Document{Content: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return documents, nil
}

// summarize renders a short identifier for a ranked document: the source file
// when known, otherwise the first line of content.
func summarize(doc types.Document) string {
	if file, ok := doc.Meta["file"].(string); ok {
		return file
	}
	content := strings.SplitN(doc.Content, "\n", 2)[0]
	if len(content) > 80 {
		content = content[:77] + "..."
	}
	return content
}
