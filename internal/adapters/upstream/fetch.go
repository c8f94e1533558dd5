package upstream

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/session"
	"github.com/okian/perfboard/pkg/logger"
)

// FetchPage issues one list request for q and returns the decoded page.
func (c *Client) FetchPage(ctx context.Context, sess session.Session, q Query) (model.Page, error) {
	path, err := PathFor(q.Scope)
	if err != nil {
		return model.Page{}, err
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	var body any
	if err := c.get(ctx, sess, path, q.Values(), &body); err != nil {
		return model.Page{}, err
	}
	c.metrics.RecordPageFetched()
	return decodePage(body, q.Page), nil
}

// FetchAll reads every page of q and returns the records in page order.
//
// When the first page reports a total count and points at page 2, the rest
// is fetched in parallel by at most the configured number of goroutines.
// Otherwise next tokens are followed one by one. Either way at most the
// configured page ceiling is read; a result that needs more fails with
// ErrTooManyPages. Any failure discards everything fetched so far.
func (c *Client) FetchAll(ctx context.Context, sess session.Session, q Query) ([]model.RawRecord, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = c.pageSize
	}

	first, err := c.FetchPage(ctx, sess, q)
	if err != nil {
		return nil, err
	}
	if first.Last() || len(first.Records) == 0 {
		return first.Records, nil
	}

	if first.NextPageToken == strconv.Itoa(q.Page+1) && first.TotalCount > len(first.Records) {
		return c.fetchParallel(ctx, sess, q, first)
	}
	return c.fetchSequential(ctx, sess, q, first)
}

func (c *Client) fetchSequential(ctx context.Context, sess session.Session, q Query, first model.Page) ([]model.RawRecord, error) {
	out := append([]model.RawRecord(nil), first.Records...)
	seen := map[string]bool{strconv.Itoa(q.Page): true}
	page := first
	for fetched := 1; !page.Last(); fetched++ {
		if fetched >= c.maxPages {
			return nil, fmt.Errorf("%w: more than %d pages for %s", ErrTooManyPages, c.maxPages, q.Scope)
		}
		if seen[page.NextPageToken] {
			return nil, fmt.Errorf("%w: next page %s repeats", ErrMalformed, page.NextPageToken)
		}
		seen[page.NextPageToken] = true

		n, err := strconv.Atoi(page.NextPageToken)
		if err != nil {
			return nil, fmt.Errorf("%w: next page token %q", ErrMalformed, page.NextPageToken)
		}
		q.Page = n
		page, err = c.FetchPage(ctx, sess, q)
		if err != nil {
			return nil, err
		}
		if len(page.Records) == 0 {
			break
		}
		out = append(out, page.Records...)
	}
	return out, nil
}

func (c *Client) fetchParallel(ctx context.Context, sess session.Session, q Query, first model.Page) ([]model.RawRecord, error) {
	per := len(first.Records)
	total := (first.TotalCount + per - 1) / per
	if total > c.maxPages {
		return nil, fmt.Errorf("%w: %d pages of %d for %s, limit %d", ErrTooManyPages, total, per, q.Scope, c.maxPages)
	}

	c.log.Debug(ctx, "fetching pages in parallel",
		logger.String("scope", string(q.Scope)),
		logger.Int("pages", total),
		logger.Int("count", first.TotalCount),
	)

	pages := make([][]model.RawRecord, total)
	pages[0] = first.Records

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := 1; i < total; i++ {
		pq := q
		pq.Page = q.Page + i
		g.Go(func() error {
			p, err := c.FetchPage(gctx, sess, pq)
			if err != nil {
				return err
			}
			pages[i] = p.Records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.RawRecord, 0, first.TotalCount)
	for _, p := range pages {
		out = append(out, p...)
	}
	return out, nil
}
