/*
Package crossencoder provides cross-encoder functionality for scoring passages
based on their relevance to a query.

# Overview

Cross-encoders are neural models used in information retrieval to rerank
search results by computing relevance scores between a query and candidate
passages. Unlike bi-encoders that encode queries and documents separately,
cross-encoders process query-document pairs together, which generally gives
better ranking accuracy at higher computational cost.

The model loading, tokenization and inference itself is delegated to external
runtimes; this package wraps those runtimes behind a single Client interface
so the ranker in the root package can stay runtime-agnostic.

# Implementations

  - EmbedEverythingClient: local pretrained cross-encoder models via the
    go-embedeverything library (e.g. BAAI/bge-reranker-base).
  - RerankerClient: Jina-compatible HTTP reranking APIs. Works with vLLM,
    LocalAI, Jina AI and other services exposing POST /rerank.
  - RustBertRerankerClient: local BERT question-answering model via
    go-rust-bert, using answer confidence as a relevance proxy.
  - OpenAIRerankerClient: boolean classification prompts per passage through
    an LLM client, scored from token log-probabilities.
  - EmbeddingRerankerClient: cosine similarity of bi-encoder embeddings.
  - LocalRerankerClient: term-frequency cosine similarity, no external calls.
  - MockRerankerClient: deterministic scorer for tests.

# Factory

NewClient creates clients from a provider name:

	client, err := crossencoder.NewClient(crossencoder.ClientConfig{
		Provider: crossencoder.ProviderEmbedEverything,
		Config:   crossencoder.DefaultConfig(crossencoder.ProviderEmbedEverything),
	})

# Usage

	results, err := client.Rank(ctx, "What is machine learning?", passages)
	// results are sorted by score descending; results[i].Index points back
	// into the passages slice.

Cross-encoders are typically the second stage of a retrieval pipeline: a fast
first stage (BM25, vector similarity) produces candidates, and the
cross-encoder reranks the top few dozen for precision.
*/
package crossencoder
