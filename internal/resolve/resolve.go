// Package resolve drives the per-profile enrichment pipeline: synthesize
// a search query, search, verify each candidate, and persist verified
// matches. Profiles are processed in fixed-size batches with bounded
// parallelism; the store is flushed at every batch boundary.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/profile-enricher/internal/ratelimit"
	"github.com/jonathan/profile-enricher/internal/search"
	"github.com/jonathan/profile-enricher/internal/store"
	"github.com/jonathan/profile-enricher/internal/synth"
	"github.com/jonathan/profile-enricher/internal/topics"
	"github.com/jonathan/profile-enricher/internal/types"
	"github.com/jonathan/profile-enricher/internal/verify"
)

// Synthesizer turns a profile into a search query.
type Synthesizer interface {
	Synthesize(ctx context.Context, profile types.Profile) (string, error)
}

// Verifier decides whether a candidate refers to the profile's person.
type Verifier interface {
	Verify(ctx context.Context, profile types.Profile, candidate types.SearchCandidate) (verify.Verdict, error)
}

// WikiExtractor pulls expertise data out of a Wikipedia article.
type WikiExtractor interface {
	Extract(ctx context.Context, articleURL, name string) (*types.WikipediaData, error)
}

// Options configure a run.
type Options struct {
	// BatchSize is the checkpoint granularity: the store is flushed
	// after each batch. Default 10.
	BatchSize int

	// Workers bounds parallelism inside a batch. Default 4.
	Workers int

	// Attempts bounds retries per external call. Default 3.
	Attempts uint

	// RetryDelay is the base backoff delay. Default 500ms.
	RetryDelay time.Duration

	// CallTimeout bounds each external call attempt. Zero means no
	// per-call deadline beyond the run context.
	CallTimeout time.Duration

	// Force reprocesses handles already present in the store.
	Force bool
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Attempts == 0 {
		o.Attempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 500 * time.Millisecond
	}
	return o
}

// Deps are the collaborators an Orchestrator drives. Wiki and Canon are
// optional; everything else is required.
type Deps struct {
	Synth  Synthesizer
	Search search.Provider
	Verify Verifier
	Wiki   WikiExtractor
	Store  store.Store
	Canon  *topics.Canonicalizer
	Limits *ratelimit.Limits
	Logger *zap.Logger
}

// Orchestrator runs the resolution pipeline over a profile set.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
}

// New creates an Orchestrator, filling in default options and limits.
func New(deps Deps, opts Options) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Limits == nil {
		deps.Limits = ratelimit.DefaultLimits()
	}
	return &Orchestrator{deps: deps, opts: opts.withDefaults(), logger: deps.Logger}
}

// Run processes the profiles and returns the run report. Handles already
// present in the store are excluded unless Options.Force is set, so a
// rerun over an unchanged input set makes no external calls. A non-nil
// error means the run itself failed (store unavailable); per-profile
// failures are reported in the Report, never returned.
func (o *Orchestrator) Run(ctx context.Context, profiles []types.Profile) (*Report, error) {
	report := &Report{Topics: make(map[string][]string)}

	if o.deps.Canon != nil {
		for _, p := range profiles {
			if canonical := o.deps.Canon.Canonicalize(p.Topics); len(canonical) > 0 {
				report.Topics[p.Key()] = canonical
			}
		}
		report.TopicStats = o.deps.Canon.Stats()
	}

	pending, err := o.pendingProfiles(ctx, profiles, report)
	if err != nil {
		return nil, err
	}
	o.logger.Info("starting resolution run",
		zap.Int("profiles", len(profiles)),
		zap.Int("pending", len(pending)),
		zap.Int("batch_size", o.opts.BatchSize))

	for start := 0; start < len(pending); start += o.opts.BatchSize {
		end := start + o.opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := o.runBatch(ctx, pending[start:end], report); err != nil {
			return report, err
		}
		if err := o.deps.Store.Flush(ctx); err != nil {
			return report, fmt.Errorf("failed to flush store after batch: %w", err)
		}
	}
	return report, nil
}

// pendingProfiles filters out handles that already have a stored record.
func (o *Orchestrator) pendingProfiles(ctx context.Context, profiles []types.Profile, report *Report) ([]types.Profile, error) {
	if o.opts.Force {
		return profiles, nil
	}
	handles, err := o.deps.Store.Handles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored handles: %w", err)
	}
	stored := make(map[string]bool, len(handles))
	for _, h := range handles {
		stored[h] = true
	}

	pending := make([]types.Profile, 0, len(profiles))
	for _, p := range profiles {
		if stored[p.Key()] {
			report.AlreadyResolved++
			continue
		}
		pending = append(pending, p)
	}
	return pending, nil
}

// runBatch resolves one batch with bounded parallelism. A single
// collector serializes store writes; a merge failure aborts the run.
func (o *Orchestrator) runBatch(ctx context.Context, batch []types.Profile, report *Report) error {
	results := make(chan Outcome, len(batch))

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for _, p := range batch {
		profile := p
		g.Go(func() error {
			results <- o.resolveProfile(ctx, profile)
			return nil
		})
	}

	collected := make(chan error, 1)
	go func() {
		var firstErr error
		for out := range results {
			o.tally(report, out)
			if out.Record == nil || firstErr != nil {
				continue
			}
			if err := o.deps.Store.Merge(ctx, out.Record); err != nil {
				firstErr = fmt.Errorf("failed to merge record for %s: %w", out.Handle, err)
			}
		}
		collected <- firstErr
	}()

	_ = g.Wait() // workers never return errors
	close(results)
	return <-collected
}

func (o *Orchestrator) tally(report *Report, out Outcome) {
	switch out.State {
	case StateDone:
		report.Resolved++
		if out.Record != nil {
			report.Matches += len(out.Record.MatchedResults)
		}
	case StateSkipped:
		report.Skipped++
		o.logger.Warn("profile skipped",
			zap.String("handle", out.Handle),
			zap.String("reason", out.SkipReason))
	case StateFailed:
		report.Failed++
		o.logger.Warn("profile failed",
			zap.String("handle", out.Handle),
			zap.Error(out.Err))
	case StatePending:
		report.Pending++
	}
}

// resolveProfile walks one profile through the state machine. A context
// cancellation mid-pipeline leaves the profile PENDING so the next run
// picks it up without it counting as failed.
func (o *Orchestrator) resolveProfile(ctx context.Context, profile types.Profile) Outcome {
	out := Outcome{Handle: profile.Key(), State: StatePending}
	if ctx.Err() != nil {
		return out
	}

	query, err := o.synthesizeQuery(ctx, profile)
	if err != nil {
		if ctx.Err() != nil {
			return out
		}
		if errors.Is(err, synth.ErrNoQuery) {
			out.State = StateSkipped
			out.SkipReason = "terminal"
			out.Err = types.Skip(out.SkipReason, err)
			return out
		}
		out.State = StateSkipped
		out.SkipReason = "query-synthesis-failed"
		out.Err = types.Skip(out.SkipReason, err)
		return out
	}
	out.State = StateQueried
	o.logger.Debug("query synthesized",
		zap.String("handle", out.Handle),
		zap.String("query", query))

	candidates, err := o.searchCandidates(ctx, profile, query)
	if err != nil {
		if ctx.Err() != nil {
			out.State = StatePending
			return out
		}
		if errors.Is(err, types.ErrMalformedResponse) {
			out.State = StateSkipped
			out.SkipReason = "malformed-search-response"
			out.Err = types.Skip(out.SkipReason, err)
			return out
		}
		out.State = StateFailed
		out.Err = &types.ExhaustedError{Op: "search", Err: err}
		return out
	}
	out.State = StateSearched

	// An empty candidate list is a valid outcome, not an error.
	if len(candidates) == 0 {
		out.State = StateDone
		out.Status = StatusNoCandidates
		return out
	}

	out.State = StateVerifying
	record, status, err := o.verifyCandidates(ctx, profile, candidates)
	if err != nil {
		if ctx.Err() != nil {
			out.State = StatePending
			return out
		}
		out.State = StateFailed
		out.Err = err
		return out
	}
	out.State = StateDone
	out.Status = status
	out.Record = record
	return out
}

func (o *Orchestrator) synthesizeQuery(ctx context.Context, profile types.Profile) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			if err := o.deps.Limits.Synthesis.Wait(ctx); err != nil {
				return "", err
			}
			cctx, cancel := o.callCtx(ctx)
			defer cancel()
			return o.deps.Synth.Synthesize(cctx, profile)
		},
		o.retryOpts(ctx, "query synthesis", profile.Key())...,
	)
}

// searchCandidates runs the main query and, when the profile has a
// description, a "<name> wikipedia" side query. Results are merged with
// URL dedup and reordered so Wikipedia articles are verified first.
func (o *Orchestrator) searchCandidates(ctx context.Context, profile types.Profile, query string) ([]types.SearchCandidate, error) {
	candidates, err := o.searchOnce(ctx, query)
	if err != nil {
		return nil, err
	}
	if profile.Description != "" {
		wikiResults, wikiErr := o.searchOnce(ctx, synth.WikipediaQuery(profile))
		if wikiErr != nil {
			// the side query is best-effort
			o.logger.Warn("wikipedia side query failed",
				zap.String("handle", profile.Key()),
				zap.Error(wikiErr))
		} else {
			candidates = mergeCandidates(candidates, wikiResults)
		}
	}
	return wikipediaFirst(candidates), nil
}

func (o *Orchestrator) searchOnce(ctx context.Context, query string) ([]types.SearchCandidate, error) {
	return retry.DoWithData(
		func() ([]types.SearchCandidate, error) {
			if err := o.deps.Limits.Search.Wait(ctx); err != nil {
				return nil, err
			}
			cctx, cancel := o.callCtx(ctx)
			defer cancel()
			return o.deps.Search.Search(cctx, query)
		},
		o.retryOpts(ctx, "search", query)...,
	)
}

// verifyCandidates checks every candidate independently, in order, and
// accumulates the accepted ones. The first accepted Wikipedia article is
// enriched with expertise data when the profile has a description.
func (o *Orchestrator) verifyCandidates(ctx context.Context, profile types.Profile, candidates []types.SearchCandidate) (*types.MatchRecord, Status, error) {
	record := &types.MatchRecord{Handle: profile.Key()}
	wikiEnriched := false

	for _, cand := range candidates {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		verdict, err := o.verifyOnce(ctx, profile, cand)
		if err != nil {
			if errors.Is(err, types.ErrMalformedResponse) {
				o.logger.Warn("unusable verification response",
					zap.String("handle", profile.Key()),
					zap.String("url", cand.URL))
				continue
			}
			return nil, "", &types.ExhaustedError{Op: "verification", Err: err}
		}
		if !verdict.Accept() {
			continue
		}

		match := types.MatchedResult{
			Title:       cand.Title,
			Description: cand.Description,
			URL:         cand.URL,
			SourceType:  types.ClassifySource(cand.URL),
		}
		if match.SourceType == types.SourceWikipedia && !wikiEnriched &&
			profile.Description != "" && o.deps.Wiki != nil {
			wikiEnriched = true
			data, wikiErr := o.deps.Wiki.Extract(ctx, cand.URL, profile.DisplayName)
			if wikiErr != nil {
				// degrade to a plain match
				o.logger.Warn("wikipedia extraction failed",
					zap.String("handle", profile.Key()),
					zap.String("url", cand.URL),
					zap.Error(wikiErr))
			} else {
				match.Wikipedia = data
			}
		}
		record.MatchedResults = append(record.MatchedResults, match)
	}

	if len(record.MatchedResults) == 0 {
		return nil, StatusNoConfidentMatch, nil
	}
	return record, StatusMatched, nil
}

func (o *Orchestrator) verifyOnce(ctx context.Context, profile types.Profile, cand types.SearchCandidate) (verify.Verdict, error) {
	return retry.DoWithData(
		func() (verify.Verdict, error) {
			if err := o.deps.Limits.Verify.Wait(ctx); err != nil {
				return verify.Verdict{}, err
			}
			cctx, cancel := o.callCtx(ctx)
			defer cancel()
			return o.deps.Verify.Verify(cctx, profile, cand)
		},
		o.retryOpts(ctx, "verification", profile.Key())...,
	)
}

// callCtx derives a per-attempt context when a call timeout is set.
func (o *Orchestrator) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, o.opts.CallTimeout)
	}
	return ctx, func() {}
}

func (o *Orchestrator) retryOpts(ctx context.Context, op, subject string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(o.opts.Attempts),
		retry.Delay(o.opts.RetryDelay),
		retry.MaxJitter(o.opts.RetryDelay / 2),
		retry.LastErrorOnly(true),
		retry.RetryIf(types.IsTransient),
		retry.OnRetry(func(n uint, err error) {
			o.logger.Warn("retrying "+op,
				zap.Uint("attempt", n+1),
				zap.String("subject", subject),
				zap.Error(err))
		}),
	}
}

func mergeCandidates(primary, extra []types.SearchCandidate) []types.SearchCandidate {
	seen := make(map[string]bool, len(primary))
	for _, c := range primary {
		seen[c.URL] = true
	}
	merged := primary
	for _, c := range extra {
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		merged = append(merged, c)
	}
	return merged
}

// wikipediaFirst stably partitions candidates so Wikipedia articles are
// verified before everything else.
func wikipediaFirst(candidates []types.SearchCandidate) []types.SearchCandidate {
	wiki := make([]types.SearchCandidate, 0, len(candidates))
	rest := make([]types.SearchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if types.ClassifySource(c.URL) == types.SourceWikipedia {
			wiki = append(wiki, c)
		} else {
			rest = append(rest, c)
		}
	}
	return append(wiki, rest...)
}
