// Package ordinato provides cross-encoder document reranking for Go.
//
// Ordinato is a second-stage ranker for retrieval pipelines: given a query
// and a list of candidate documents (typically from BM25 or vector search),
// it scores each query/document pair with a cross-encoder model and returns
// the documents sorted by relevance. Cross-encoders process the query and
// document together, which makes them slower but considerably more accurate
// than bi-encoder similarity.
//
// # Basic Usage
//
// Create a cross-encoder client and a ranker:
//
//	// Local pretrained cross-encoder model
//	client, err := crossencoder.NewClient(crossencoder.ClientConfig{
//		Provider: crossencoder.ProviderEmbedEverything,
//		Config:   crossencoder.DefaultConfig(crossencoder.ProviderEmbedEverything),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ranker, err := ordinato.NewRanker(client, ordinato.DefaultRankerConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ranker.Close()
//
//	if err := ranker.WarmUp(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Ranking
//
// Rank returns the documents sorted by score, truncated to the top k:
//
//	docs := []types.Document{
//		{Content: "Paris is the capital of France"},
//		{Content: "Berlin is the capital of Germany"},
//	}
//
//	ranked, err := ranker.Rank(ctx, "capital of France", docs, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, doc := range ranked {
//		fmt.Printf("%.3f  %s\n", *doc.Score, doc.Content)
//	}
//
// # Pair Building
//
// Documents can carry metadata into the scored text. With MetaFields set,
// the listed meta values are joined with the content using Separator:
//
//	config := ordinato.DefaultRankerConfig()
//	config.MetaFields = []string{"title"}
//	config.QueryPrefix = "query: "
//	config.DocumentPrefix = "passage: "
//
// # Score Calibration
//
// Raw cross-encoder outputs are unbounded logits. With ScaleScore enabled
// (the default) scores are mapped to 0-1 via a sigmoid with a configurable
// calibration factor, which makes score thresholds meaningful:
//
//	config.ScoreThreshold = ordinato.Float64(0.5)
//
// Per-call overrides are available through RankOptions:
//
//	ranked, err := ranker.Rank(ctx, query, docs, &ordinato.RankOptions{
//		TopK:           ordinato.Int(3),
//		ScoreThreshold: ordinato.Float64(0.7),
//	})
//
// # Providers
//
// The scoring model runs behind the crossencoder.Client interface:
//
//   - embedeverything: local pretrained cross-encoder models
//   - reranker: Jina-compatible HTTP reranking APIs (vLLM, LocalAI, Jina)
//   - openai: LLM relevance classification with log-probability scores
//   - rustbert: local BERT question-answering confidence
//   - embedding: bi-encoder cosine similarity fallback
//   - local, mock: dependency-free scorers for development and tests
//
// # Architecture
//
// The library follows a modular architecture:
//
//   - pkg/crossencoder: scoring model clients
//   - pkg/fusion: rank fusion (RRF) and diversification (MMR)
//   - pkg/cache: persistent score cache
//   - pkg/server: REST service exposing the ranker
//   - pkg/types: core type definitions
//
// This design allows easy extension with additional scoring backends.
package ordinato
