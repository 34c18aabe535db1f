package main

import (
	"log/slog"

	"github.com/soundprediction/ordinato/pkg/logger"
)

func main() {
	// Create a colored logger
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("    Ordinato Colored Logger Demo")
	log.Info("============================================")
	log.Info("")

	log.Debug("Debug message - standard color")
	log.Info("Info message - standard color")
	log.Info("Ranking documents - green!")
	log.Info("Ranked documents successfully - also green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("")
	log.Info("Ranking operations are highlighted in green:")
	log.Info("Warming up cross-encoder model", "model", "cross-encoder/ms-marco-MiniLM-L-6-v2")
	log.Info("Ranked candidate documents", "candidates", 100, "returned", 10)
	log.Info("Reranked fused results", "lists", 3, "duration", "120ms")

	log.Info("")
	log.Warn("Warnings appear in yellow for attention")
	log.Error("Errors appear in red for immediate visibility")

	log.Info("")
	log.Info("Demo complete!")
}
