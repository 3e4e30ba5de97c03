package answer

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/evidra/evidra/helper"
	"github.com/evidra/evidra/model"
)

// errorMarkers identify cached answers produced by failed generation calls.
// Such entries are treated as cache misses so the question gets regenerated.
var errorMarkers = []string{"Error generating answer", "Error code: 402"}

// Cache persists precomputed answers keyed by exact question text in a flat
// JSON file. Every mutation is written through to disk immediately.
type Cache struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]model.CachedAnswer
}

// NewCache loads a cache from path. A missing or unreadable file starts an
// empty cache instead of failing.
func NewCache(path string, logger *slog.Logger) *Cache {
	cache := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]model.CachedAnswer),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("failed to load answer cache", slog.Any("error", err))
		}
		return cache
	}

	if err := json.Unmarshal(data, &cache.entries); err != nil {
		logger.Error("failed to parse answer cache, starting fresh", slog.Any("error", err))
		cache.entries = make(map[string]model.CachedAnswer)
		return cache
	}

	logger.Info("loaded answer cache", slog.Int("entries", len(cache.entries)))
	return cache
}

// Get returns the cached answer for a question. Entries whose answer text
// carries an error marker are reported as misses.
func (c *Cache) Get(question string) (*model.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[question]
	if !ok || isErrorAnswer(entry.AnswerText) {
		return nil, false
	}
	return entry.ToAnswer(), true
}

// Has reports whether a valid answer is cached for the question.
func (c *Cache) Has(question string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[question]
	return ok && !isErrorAnswer(entry.AnswerText)
}

// Set caches an answer and persists the cache.
func (c *Cache) Set(question string, answer *model.Answer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[question] = model.CachedAnswer{
		Question:       answer.Question,
		AnswerText:     answer.AnswerText,
		Evidence:       answer.Evidence,
		Sources:        answer.Sources,
		HasEvidence:    answer.HasEvidence,
		RetrievalStats: answer.RetrievalStats,
		CachedAt:       time.Now(),
	}
	return c.save()
}

// UpdateAll regenerates and caches answers for all questions sequentially.
// Per-question failures are logged and skipped so one bad question does not
// abort the refresh.
func (c *Cache) UpdateAll(ctx context.Context, questions []string, answerFn func(ctx context.Context, question string) (*model.Answer, error)) {
	c.logger.Info("updating answer cache", slog.Int("questions", len(questions)))

	for i, question := range questions {
		c.logger.Info("caching answer",
			slog.Int("current", i+1),
			slog.Int("total", len(questions)),
			slog.String("question", truncate(question, 50)),
		)

		answer, err := answerFn(ctx, question)
		if err != nil {
			c.logger.Error("failed to answer question for cache", slog.String("question", question), slog.Any("error", err))
			continue
		}
		if err := c.Set(question, answer); err != nil {
			c.logger.Error("failed to persist cached answer", slog.String("question", question), slog.Any("error", err))
		}
	}
}

// Clear removes all cached answers and persists the empty cache.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]model.CachedAnswer)
	return c.save()
}

// Stats returns the number of cached answers and their questions in sorted
// order.
func (c *Cache) Stats() (int, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	questions := make([]string, 0, len(c.entries))
	for question := range c.entries {
		questions = append(questions, question)
	}
	sort.Strings(questions)
	return len(c.entries), questions
}

func (c *Cache) save() error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return helper.NewError("creating cache directory", err)
		}
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return helper.NewError("marshaling answer cache", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return helper.NewError("writing answer cache", err)
	}
	return nil
}

func isErrorAnswer(answerText string) bool {
	for _, marker := range errorMarkers {
		if strings.Contains(answerText, marker) {
			return true
		}
	}
	return false
}
