package services

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/domain/search"
	"chatter-server/internal/repository"
)

const (
	minQueryLen      = 2
	maxSearchResults = 50
	snippetContext   = 60
)

// SearchService serves keyword queries over the live-message
// projection. Index maintenance happens inside the store's own
// transactions (see indexMessage / the delete path), so the index and
// the store cannot diverge on deletions.
type SearchService struct {
	uow repository.UnitOfWork
}

func NewSearchService(uow repository.UnitOfWork) *SearchService {
	return &SearchService{uow: uow}
}

// Search returns matches ranked by recency. Queries under two
// characters return empty without touching storage.
func (s *SearchService) Search(ctx context.Context, projectID uuid.UUID, query string) ([]search.Result, int, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLen {
		return []search.Result{}, 0, nil
	}

	entries, err := s.uow.Repos().Search.Query(ctx, projectID, query, maxSearchResults)
	if err != nil {
		return nil, 0, err
	}

	results := make([]search.Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, search.Result{
			Kind:      e.Kind,
			MessageID: e.MessageID,
			ThreadID:  e.ThreadID,
			AuthorID:  e.AuthorID,
			CreatedAt: e.CreatedAt,
			Highlight: highlightSnippet(e.PlainText, query),
		})
	}
	return results, len(results), nil
}

// indexMessage upserts the searchable projection of a live message.
// Called inside the same transaction as the message write.
func indexMessage(ctx context.Context, r repository.Repositories, m chatter.Message) error {
	threadID := m.ID
	if m.ThreadID != nil {
		threadID = *m.ThreadID
	}
	kind := search.KindThread
	if m.Kind == chatter.KindReply {
		kind = search.KindReply
	}
	return r.Search.Upsert(ctx, &search.Entry{
		MessageID: m.ID,
		ThreadID:  threadID,
		ProjectID: m.ProjectID,
		Kind:      kind,
		AuthorID:  m.AuthorID,
		PlainText: m.PlainText,
		CreatedAt: m.CreatedAt,
	})
}

// highlightSnippet wraps the first case-insensitive occurrence of query
// in <mark> markers, keeping a bounded window of context around it. The
// surrounding text is HTML-escaped; only the markers are markup.
func highlightSnippet(text, query string) string {
	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	at := strings.Index(lowerText, lowerQuery)
	if at < 0 {
		return html.EscapeString(truncateRunes(text, snippetContext*2))
	}

	start := at
	for i := 0; i < snippetContext && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := at + len(query)
	for i := 0; i < snippetContext && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("…")
	}
	b.WriteString(html.EscapeString(text[start:at]))
	b.WriteString("<mark>")
	b.WriteString(html.EscapeString(text[at : at+len(query)]))
	b.WriteString("</mark>")
	b.WriteString(html.EscapeString(text[at+len(query) : end]))
	if end < len(text) {
		b.WriteString("…")
	}
	return b.String()
}

func truncateRunes(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "…"
}
