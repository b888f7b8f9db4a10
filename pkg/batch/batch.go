// Package batch fans a single query out over many symbols concurrently and
// joins the outcomes by symbol.
package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"

	"crypto-mcp/pkg/market"
)

// DefaultMaxConcurrency bounds in-flight fetches when Options leaves it unset.
const DefaultMaxConcurrency = 8

// Fetcher performs one logical upstream query for a symbol and returns its
// records in provider order.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, symbol string, q market.Query) ([]T, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[T any] func(ctx context.Context, symbol string, q market.Query) ([]T, error)

// Fetch calls f.
func (f FetcherFunc[T]) Fetch(ctx context.Context, symbol string, q market.Query) ([]T, error) {
	return f(ctx, symbol, q)
}

// Entry is the outcome for one symbol: either Records or Err.
type Entry[T any] struct {
	Records []T
	Err     error
}

// Result maps every requested symbol to its entry.
type Result[T any] map[string]Entry[T]

// Symbols returns the keys of r in lexical order.
func (r Result[T]) Symbols() []string {
	out := make([]string, 0, len(r))
	for s := range r {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Failed returns the symbols whose fetch failed, sorted.
func (r Result[T]) Failed() []string {
	var out []string
	for _, s := range r.Symbols() {
		if r[s].Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// AllFailedError is returned when no symbol in the batch succeeded.
type AllFailedError struct {
	Errors map[string]error
}

func (e *AllFailedError) Error() string {
	symbols := make([]string, 0, len(e.Errors))
	for s := range e.Errors {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	parts := make([]string, 0, len(symbols))
	for _, s := range symbols {
		parts = append(parts, fmt.Sprintf("%s: %v", s, e.Errors[s]))
	}
	return fmt.Sprintf("batch: all %d symbols failed: %s", len(symbols), strings.Join(parts, "; "))
}

// Unwrap exposes the per-symbol causes to errors.Is and errors.As.
func (e *AllFailedError) Unwrap() []error {
	out := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		out = append(out, err)
	}
	return out
}

// Options tunes an Orchestrator.
type Options struct {
	// MaxConcurrency caps simultaneous fetches. Zero means DefaultMaxConcurrency.
	MaxConcurrency int
	// Timeout bounds a whole batch. Zero means no bound beyond the caller's context.
	Timeout time.Duration
	Logger  logx.Logger
}

// Orchestrator runs batches. It holds no per-batch state and is safe for concurrent use.
type Orchestrator struct {
	maxConcurrency int
	timeout        time.Duration
	logger         logx.Logger
}

// New constructs an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		maxConcurrency: opts.MaxConcurrency,
		timeout:        opts.Timeout,
		logger:         opts.Logger,
	}
	if o.maxConcurrency <= 0 {
		o.maxConcurrency = DefaultMaxConcurrency
	}
	return o
}

// MaxConcurrency reports the effective in-flight ceiling.
func (o *Orchestrator) MaxConcurrency() int {
	return o.maxConcurrency
}

func (o *Orchestrator) log(ctx context.Context) logx.Logger {
	if o.logger != nil {
		return o.logger.WithContext(ctx)
	}
	return logx.WithContext(ctx)
}

// NormalizeSymbols upper-cases symbols and rejects an empty list, blank
// entries and duplicates. Order is preserved.
func NormalizeSymbols(symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, market.Validationf("symbols", "must not be empty")
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for i, raw := range symbols {
		s := market.NormalizeSymbol(raw)
		if s == "" {
			return nil, market.Validationf("symbols", "entry %d is empty", i)
		}
		if _, dup := seen[s]; dup {
			return nil, market.Validationf("symbols", "duplicate symbol %s", s)
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// Fetch validates symbols and q, then calls f once per symbol with at most
// o.MaxConcurrency calls in flight. A failing symbol is recorded in its entry
// and never aborts the others. If every symbol fails the result is an
// *AllFailedError. If ctx ends while any fetch is skipped or failing, the
// context error is returned and completed results are discarded; a batch
// whose fetches all succeeded is returned even if ctx ends at the join.
func Fetch[T any](ctx context.Context, o *Orchestrator, symbols []string, q market.Query, f Fetcher[T]) (Result[T], error) {
	if o == nil {
		o = New(Options{})
	}
	normalized, err := NormalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	entries := make([]Entry[T], len(normalized))
	interrupted := make([]error, len(normalized))
	var g errgroup.Group
	g.SetLimit(o.maxConcurrency)
	for i, symbol := range normalized {
		i, symbol := i, symbol
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				entries[i] = Entry[T]{Err: err}
				interrupted[i] = err
				return nil
			}
			records, err := f.Fetch(ctx, symbol, q.WithSymbol(symbol))
			entries[i] = Entry[T]{Records: records, Err: err}
			if err != nil {
				interrupted[i] = ctx.Err()
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range interrupted {
		if err != nil {
			o.log(ctx).Errorf("batch: aborted after %s symbols=%d err=%v", time.Since(start), len(normalized), err)
			return nil, fmt.Errorf("batch: %w", err)
		}
	}

	result := make(Result[T], len(normalized))
	failures := make(map[string]error)
	for i, symbol := range normalized {
		result[symbol] = entries[i]
		if entries[i].Err != nil {
			failures[symbol] = entries[i].Err
		}
	}
	if len(failures) == len(normalized) {
		o.log(ctx).Errorf("batch: all %d symbols failed in %s", len(normalized), time.Since(start))
		return nil, &AllFailedError{Errors: failures}
	}
	if len(failures) > 0 {
		o.log(ctx).Infof("batch: %d/%d symbols failed in %s", len(failures), len(normalized), time.Since(start))
	}
	return result, nil
}
