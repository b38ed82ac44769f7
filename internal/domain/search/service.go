package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/worklog/internal/domain/worklog"
)

const noAnswer = "No related logs were found."

// Service runs semantic and lexical searches over log entries.
type Service struct {
	embedder  Embedder
	completer Completer
	store     Store
	entries   EntryReader
	logger    *slog.Logger
}

// NewService creates a search service. embedder and completer may be nil,
// in which case only lexical search is available.
func NewService(embedder Embedder, completer Completer, store Store, entries EntryReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{embedder: embedder, completer: completer, store: store, entries: entries, logger: logger}
}

// Search returns logs semantically similar to query.
func (s *Service) Search(ctx context.Context, userID, query string, opts Options) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if s.embedder == nil {
		return nil, ErrNotConfigured
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	return s.match(ctx, userID, query, opts.Threshold, opts.Limit)
}

// Ask answers a question using the logs most related to it.
func (s *Service) Ask(ctx context.Context, userID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuery
	}
	if s.embedder == nil || s.completer == nil {
		return nil, ErrNotConfigured
	}

	matches, err := s.match(ctx, userID, question, askThreshold, askCount)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &Answer{Answer: noAnswer, Sources: []Match{}}, nil
	}

	reply, err := s.completer.Complete(ctx, askPrompt(question, matches))
	if err != nil {
		return nil, fmt.Errorf("answering question: %w", err)
	}
	return &Answer{Answer: strings.TrimSpace(reply), Sources: matches}, nil
}

// Lexical returns entries whose text matches query, newest first.
func (s *Service) Lexical(ctx context.Context, userID, query string, limit int) ([]worklog.Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	entries, err := s.entries.List(ctx, userID, worklog.ListOptions{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return entries, nil
}

func (s *Service) match(ctx context.Context, userID, text string, threshold float64, count int) ([]Match, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	matches, err := s.store.Match(ctx, userID, vec, threshold, count)
	if err != nil {
		return nil, fmt.Errorf("matching logs: %w", err)
	}
	return matches, nil
}

func askPrompt(question string, matches []Match) string {
	var b strings.Builder
	b.WriteString("You answer questions about a project manager's work logs.\n\n")
	b.WriteString("## Question\n")
	b.WriteString(question)
	b.WriteString("\n\n## Retrieved logs\n")
	for _, m := range matches {
		project := m.ProjectName
		if project == "" {
			project = "-"
		}
		fmt.Fprintf(&b, "- [%s] (%s) %s (similarity %.2f)\n", m.LogDate, project, m.Content, m.Similarity)
	}
	b.WriteString(`
## Rules
1. Answer only from the retrieved logs.
2. Do not guess. If the logs do not contain the answer, say that no related information was found.
3. Include concrete dates, project names and people.
4. Cite task tags when the logs carry them.
5. Keep the answer around 200 characters.
`)
	return b.String()
}
