package transport

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/chatdeck/chatdeck/internal/types"
)

// HistoryProvider is the persistence collaborator serving paginated,
// date-bucketed, and search fetches of older messages.
type HistoryProvider interface {
	FetchPage(ctx context.Context, req types.PageRequest) (types.Page, error)
	Search(ctx context.Context, conversationID, query string, limit int) (types.Page, error)
	AvailableDates(ctx context.Context, conversationID string) ([]string, error)
}

// Fetcher wraps a HistoryProvider with request coalescing: a second
// request for the same conversation+page key while one is in flight joins
// the existing call instead of issuing a duplicate. Failures are reported
// as ErrFetchFailed wrapping the provider's reason.
type Fetcher struct {
	provider HistoryProvider
	group    singleflight.Group
}

// NewFetcher creates a coalescing fetcher over the provider.
func NewFetcher(provider HistoryProvider) *Fetcher {
	return &Fetcher{provider: provider}
}

// FetchPage fetches one page of history, coalescing duplicate in-flight
// requests by (conversation, beforeID, dateBucket, limit).
func (f *Fetcher) FetchPage(ctx context.Context, req types.PageRequest) (types.Page, error) {
	key := fmt.Sprintf("page|%s|%s|%s|%d", req.ConversationID, req.BeforeID, req.DateBucket, req.Limit)
	v, err, _ := f.group.Do(key, func() (any, error) {
		return f.provider.FetchPage(ctx, req)
	})
	if err != nil {
		return types.Page{}, fmt.Errorf("%w: %v", types.ErrFetchFailed, err)
	}
	return v.(types.Page), nil
}

// Search runs a persistence-side substring search, coalescing duplicate
// in-flight queries.
func (f *Fetcher) Search(ctx context.Context, conversationID, query string, limit int) (types.Page, error) {
	key := fmt.Sprintf("search|%s|%s|%d", conversationID, query, limit)
	v, err, _ := f.group.Do(key, func() (any, error) {
		return f.provider.Search(ctx, conversationID, query, limit)
	})
	if err != nil {
		return types.Page{}, fmt.Errorf("%w: %v", types.ErrFetchFailed, err)
	}
	return v.(types.Page), nil
}

// AvailableDates lists the date buckets with stored history for a
// conversation.
func (f *Fetcher) AvailableDates(ctx context.Context, conversationID string) ([]string, error) {
	key := "dates|" + conversationID
	v, err, _ := f.group.Do(key, func() (any, error) {
		return f.provider.AvailableDates(ctx, conversationID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFetchFailed, err)
	}
	return v.([]string), nil
}
