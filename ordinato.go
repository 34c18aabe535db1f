package ordinato

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/soundprediction/ordinato/pkg/cache"
	"github.com/soundprediction/ordinato/pkg/crossencoder"
	"github.com/soundprediction/ordinato/pkg/types"
)

var (
	// ErrNotWarmedUp is returned when Rank is called before WarmUp on a
	// client that loads a model.
	ErrNotWarmedUp = errors.New("ranker is not warmed up, call WarmUp first")

	// ErrNilCalibrationFactor is returned when score scaling is enabled
	// without a calibration factor.
	ErrNilCalibrationFactor = errors.New("score scaling requires a calibration factor")
)

// Ranker reranks candidate documents against a query with a cross-encoder
// model. It builds query/document text pairs, scores them through the
// configured client, optionally calibrates the scores with a sigmoid, sorts
// descending and truncates to the top results.
type Ranker struct {
	client crossencoder.Client
	config RankerConfig
	logger *slog.Logger
	cache  *cache.Cache

	mu     sync.Mutex
	warmed bool
}

// RankerOption configures optional Ranker behavior.
type RankerOption func(*Ranker)

// WithLogger sets the logger used by the ranker.
func WithLogger(logger *slog.Logger) RankerOption {
	return func(r *Ranker) {
		r.logger = logger
	}
}

// WithScoreCache attaches a score cache. Raw model scores are cached before
// calibration, so per-call scaling overrides stay effective on cache hits.
func WithScoreCache(c *cache.Cache) RankerOption {
	return func(r *Ranker) {
		r.cache = c
	}
}

// NewRanker creates a new Ranker using the given cross-encoder client.
func NewRanker(client crossencoder.Client, config RankerConfig, opts ...RankerOption) (*Ranker, error) {
	if client == nil {
		return nil, fmt.Errorf("cross-encoder client is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}

	r := &Ranker{
		client: client,
		config: config,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns a copy of the ranker's configuration.
func (r *Ranker) Config() RankerConfig {
	return r.config
}

// WarmUp loads the underlying model for clients that need loading. It must be
// called before Rank for those clients; for the rest it only marks the ranker
// ready.
func (r *Ranker) WarmUp(ctx context.Context) error {
	if w, ok := r.client.(crossencoder.Warmable); ok {
		if err := w.WarmUp(ctx); err != nil {
			return fmt.Errorf("failed to warm up cross-encoder: %w", err)
		}
	}

	r.mu.Lock()
	r.warmed = true
	r.mu.Unlock()
	return nil
}

// RankOptions overrides ranker configuration for a single Rank call. Nil
// fields keep the configured values.
type RankOptions struct {
	TopK              *int
	ScaleScore        *bool
	CalibrationFactor *float64
	ScoreThreshold    *float64
}

// Rank scores the documents against the query and returns them sorted by
// score descending, filtered by the score threshold when one is set, and
// truncated to the top k. The returned documents are copies; inputs are not
// mutated. An empty document slice returns an empty result and no error.
// Options may be nil.
func (r *Ranker) Rank(ctx context.Context, query string, documents []types.Document, options *RankOptions) ([]types.Document, error) {
	if err := r.checkWarmed(); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, types.ErrEmptyQuery
	}
	if len(documents) == 0 {
		return []types.Document{}, nil
	}

	topK, scaleScore, calibrationFactor, scoreThreshold := r.resolveOptions(options)
	if topK <= 0 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidTopK, topK)
	}
	if scaleScore && calibrationFactor == nil {
		return nil, ErrNilCalibrationFactor
	}

	queryText := r.config.QueryPrefix + query
	passages := make([]string, len(documents))
	for i, doc := range documents {
		passages[i] = r.config.DocumentPrefix + doc.PairText(r.config.MetaFields, r.separator())
	}

	rawScores, err := r.scorePassages(ctx, queryText, passages)
	if err != nil {
		return nil, err
	}

	ranked := make([]types.Document, len(documents))
	for i, doc := range documents {
		score := rawScores[i]
		if scaleScore {
			score = sigmoid(score * *calibrationFactor)
		}
		ranked[i] = doc.WithScore(score)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Score > *ranked[j].Score
	})

	if scoreThreshold != nil {
		filtered := ranked[:0]
		for _, doc := range ranked {
			if *doc.Score >= *scoreThreshold {
				filtered = append(filtered, doc)
			}
		}
		ranked = filtered
	}

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	r.logger.Debug("ranked documents",
		slog.String("model", r.config.Model),
		slog.Int("candidates", len(documents)),
		slog.Int("returned", len(ranked)))

	return ranked, nil
}

// scorePassages returns one raw score per passage, positionally. Cached
// scores are reused; the rest go through the client in batches.
func (r *Ranker) scorePassages(ctx context.Context, queryText string, passages []string) ([]float64, error) {
	rawScores := make([]float64, len(passages))

	toScore := make([]int, 0, len(passages))
	for i, passage := range passages {
		if r.cache != nil {
			score, found, err := r.cache.GetScore(r.config.Model, queryText, passage)
			if err != nil {
				return nil, err
			}
			if found {
				rawScores[i] = score
				continue
			}
		}
		toScore = append(toScore, i)
	}

	for start := 0; start < len(toScore); start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > len(toScore) {
			end = len(toScore)
		}

		batch := make([]string, end-start)
		for i, idx := range toScore[start:end] {
			batch[i] = passages[idx]
		}

		results, err := r.client.Rank(ctx, queryText, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to score documents: %w", err)
		}
		if len(results) != len(batch) {
			return nil, fmt.Errorf("cross-encoder returned %d scores for %d documents", len(results), len(batch))
		}

		for _, result := range results {
			if result.Index < 0 || result.Index >= len(batch) {
				return nil, fmt.Errorf("cross-encoder returned out-of-range index %d", result.Index)
			}
			idx := toScore[start+result.Index]
			rawScores[idx] = result.Score

			if r.cache != nil {
				if err := r.cache.SetScore(r.config.Model, queryText, passages[idx], result.Score); err != nil {
					r.logger.Warn("failed to cache score", slog.String("error", err.Error()))
				}
			}
		}
	}

	return rawScores, nil
}

// checkWarmed gates Rank on WarmUp for clients that load a model.
func (r *Ranker) checkWarmed() error {
	if _, ok := r.client.(crossencoder.Warmable); !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.warmed {
		return ErrNotWarmedUp
	}
	return nil
}

// resolveOptions merges per-call overrides over the configured values.
func (r *Ranker) resolveOptions(options *RankOptions) (topK int, scaleScore bool, calibrationFactor, scoreThreshold *float64) {
	topK = r.config.TopK
	scaleScore = r.config.ScaleScore
	calibrationFactor = r.config.CalibrationFactor
	scoreThreshold = r.config.ScoreThreshold

	if options == nil {
		return topK, scaleScore, calibrationFactor, scoreThreshold
	}
	if options.TopK != nil {
		topK = *options.TopK
	}
	if options.ScaleScore != nil {
		scaleScore = *options.ScaleScore
	}
	if options.CalibrationFactor != nil {
		calibrationFactor = options.CalibrationFactor
	}
	if options.ScoreThreshold != nil {
		scoreThreshold = options.ScoreThreshold
	}
	return topK, scaleScore, calibrationFactor, scoreThreshold
}

func (r *Ranker) separator() string {
	if r.config.Separator == "" {
		return defaultSeparator
	}
	return r.config.Separator
}

// Close closes the cross-encoder client and the score cache, if any.
func (r *Ranker) Close() error {
	var errs []error
	if err := r.client.Close(); err != nil {
		errs = append(errs, err)
	}
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sigmoid maps a logit to the 0-1 range.
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Float64 returns a pointer to v. Convenience for RankOptions.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v. Convenience for RankOptions.
func Int(v int) *int { return &v }

// Bool returns a pointer to v. Convenience for RankOptions.
func Bool(v bool) *bool { return &v }
