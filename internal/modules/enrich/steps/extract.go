package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/versegraph/internal/config"
	"github.com/yungbote/versegraph/internal/domain"
	"github.com/yungbote/versegraph/internal/platform/logger"
	"github.com/yungbote/versegraph/internal/platform/openai"
)

// ErrMalformedResponse marks model output that failed strict JSON validation.
// Malformed output is never coerced into graph writes.
var ErrMalformedResponse = errors.New("malformed extraction response")

type ExtractDeps struct {
	Log *logger.Logger
	AI  openai.Client
	Cfg config.ExtractConfig
}

type ExtractOutput struct {
	Verses        int
	Extracted     int
	FailedBatches int
}

const extractionSystemPrompt = "You extract named entities from scripture passages. " +
	"Respond with strict JSON only, no prose and no code fences."

// ExtractEntities sends the corpus to the language model in small batches and
// collects people and places per verse. Each batch is retried with
// exponential backoff up to the configured attempt cap; a batch that still
// fails is logged and excluded from the output.
func ExtractEntities(ctx context.Context, deps ExtractDeps, corpus *domain.Corpus) ([]domain.VerseEntities, ExtractOutput, error) {
	var out ExtractOutput

	walk := corpus.Walk()
	out.Verses = len(walk)
	if len(walk) == 0 {
		return nil, out, fmt.Errorf("extract: empty corpus")
	}

	var extracted []domain.VerseEntities
	batchSize := deps.Cfg.BatchSize

	for start := 0; start < len(walk); start += batchSize {
		if err := ctx.Err(); err != nil {
			return extracted, out, err
		}

		end := start + batchSize
		if end > len(walk) {
			end = len(walk)
		}
		batch := walk[start:end]

		entries, err := extractBatch(ctx, deps, batch)
		if err != nil {
			out.FailedBatches++
			deps.Log.Error("extraction batch failed",
				"first_id", batch[0].ID, "size", len(batch), "error", err)
		} else {
			extracted = append(extracted, entries...)
			out.Extracted += len(entries)
		}

		sleep(ctx, deps.Cfg.Cooldown)
	}

	return extracted, out, nil
}

// extractBatch is the explicit bounded-retry policy around one model call:
// MaxAttempts tries, doubling backoff between them.
func extractBatch(ctx context.Context, deps ExtractDeps, batch []domain.VerseRef) ([]domain.VerseEntities, error) {
	prompt := buildExtractionPrompt(batch)
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= deps.Cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := deps.AI.GenerateText(ctx, extractionSystemPrompt, prompt)
		if err == nil {
			entries, parseErr := parseExtraction(content)
			if parseErr == nil {
				return entries, nil
			}
			err = parseErr
		}

		lastErr = err
		if attempt < deps.Cfg.MaxAttempts {
			deps.Log.Warn("extraction attempt failed, retrying",
				"attempt", attempt, "max_attempts", deps.Cfg.MaxAttempts,
				"backoff", backoff.String(), "error", err)
			sleep(ctx, backoff)
			backoff *= 2
		}
	}
	return nil, lastErr
}

func buildExtractionPrompt(batch []domain.VerseRef) string {
	var b strings.Builder
	b.WriteString("Extract the people and places mentioned in the following verses, using canonical names.\n")
	b.WriteString(`Return a JSON array: [{"id": ..., "people": [{"name": ..., "aliases": [...]}], "places": [{"name": ..., "aliases": [...]}]}, ...]` + "\n\n")
	b.WriteString("Verses:\n")
	for _, v := range batch {
		fmt.Fprintf(&b, "- (%s): %s\n", v.ID, v.Text)
	}
	return b.String()
}

// parseExtraction validates the model output at the boundary: after stripping
// code fences it must be a JSON array of well-formed entries.
func parseExtraction(content string) ([]domain.VerseEntities, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.Trim(cleaned, "`")
	cleaned = strings.TrimSpace(cleaned)

	if !strings.HasPrefix(cleaned, "[") {
		return nil, fmt.Errorf("%w: not a JSON array", ErrMalformedResponse)
	}

	var entries []domain.VerseEntities
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedResponse, i, err)
		}
		entries[i].Normalize()
	}
	return entries, nil
}
