// Package embedder provides text embedding clients for vector representations.
//
// The embedding-based cross-encoder provider uses these clients to score
// passages by cosine similarity between query and passage embeddings.
//
// # Supported Providers
//
//   - OpenAI: text-embedding-3-small, text-embedding-3-large, and any
//     OpenAI-compatible endpoint via Config.BaseURL
//   - EmbedEverything: local embedding models via go-embedeverything
//
// # Usage
//
//	// Create an OpenAI embedder
//	emb := embedder.NewOpenAIEmbedder(apiKey, embedder.Config{
//	    Model: "text-embedding-3-small",
//	})
//
//	// Embed text
//	embeddings, err := emb.Embed(ctx, []string{"hello world"})
//
// The Client interface supports batch embedding (Embed) and a single-text
// convenience method (EmbedSingle). Implementations handle batching
// internally based on provider limits.
package embedder
