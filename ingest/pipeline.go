package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// Pipeline orchestrates reading, transforming, gating and storing raw
// article records. Records are independent, so they are processed
// concurrently by a worker pool; the store serializes concurrent writes
// for the same hash.
type Pipeline struct {
	repository  storage.ArticleRepository
	transformer *Transformer
	gate        *Gate
	pool        *ants.Pool
	diagnostics io.Writer
	diagMu      sync.Mutex
	logger      *slog.Logger
	policy      *Policy
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithPolicy sets the ingestion policy for the gate and the URL
// canonicalizer. Default is DefaultPolicy().
func WithPolicy(policy *Policy) Option {
	return func(p *Pipeline) error {
		if policy == nil {
			return nil
		}
		if err := policy.Validate(); err != nil {
			return err
		}
		p.policy = policy
		return nil
	}
}

// WithDiagnostics sets the writer receiving one JSON line per rejected
// record. Default is io.Discard; the CLI passes stderr so diagnostics
// never mix with the primary output.
func WithDiagnostics(w io.Writer) Option {
	return func(p *Pipeline) error {
		if w == nil {
			w = io.Discard
		}
		p.diagnostics = w
		return nil
	}
}

// NewPipeline creates a new ingest pipeline writing to the given
// repository.
func NewPipeline(repository storage.ArticleRepository, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:  repository,
		pool:        pool,
		diagnostics: io.Discard,
		logger:      slog.Default(),
		policy:      DefaultPolicy(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Build the per-record stages after options so they see the final policy
	p.transformer = NewTransformer(p.policy)
	p.gate = NewGate(p.policy)

	return p, nil
}

// rejectionLine is the diagnostics wire shape for one rejected record.
type rejectionLine struct {
	Skipped bool     `json:"skipped"`
	Hash    string   `json:"hash"`
	Reasons []string `json:"reasons"`
}

// Run consumes the input stream until EOF and returns the aggregate
// summary. Per-record parse, transform and quality failures are counted
// and logged but never abort the run; a store failure does, since every
// subsequent upsert would fail the same way. The run is cancellable at
// record boundaries: completed upserts stay durable and in-flight records
// are simply dropped.
func (p *Pipeline) Run(ctx context.Context, input io.Reader) (*Summary, error) {
	if err := p.repository.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure store indexes: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reader := NewReader(input, p.logger)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		summary Summary
		fatal   error
	)

	fail := func(err error) {
		mu.Lock()
		if fatal == nil {
			fatal = err
		}
		mu.Unlock()
		cancel()
	}

	for raw := range reader.Records() {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			outcome, err := p.processOne(ctx, raw)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					p.logger.Error("aborting run on store failure", "err", err)
					fail(err)
				}
				return
			}

			mu.Lock()
			summary.add(outcome)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}

	wg.Wait()

	summary.Malformed = reader.Malformed()
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if fatal != nil {
		return nil, fatal
	}

	p.logger.Info("ingest run complete",
		"upserts", summary.Upserts,
		"rejected", summary.Rejected,
		"unusable", summary.Unusable,
		"malformed", summary.Malformed)
	return &summary, nil
}

// processOne takes a single raw record to its terminal outcome. The
// returned error is fatal to the run; per-record failures come back as
// outcomes instead.
func (p *Pipeline) processOne(ctx context.Context, raw core.RawArticle) (Outcome, error) {
	record, err := p.transformer.Transform(raw)
	if err != nil {
		p.logger.Warn("skipping unusable record", "url", raw.URL, "err", err)
		return Outcome{Kind: OutcomeUnusable}, nil
	}

	if reasons := p.gate.Evaluate(record); len(reasons) > 0 {
		p.logger.Warn("skipping rejected record", "hash", record.Hash, "reasons", reasons)
		record.Quality.Checks = reasons
		if err := p.writeRejection(record.Hash, reasons); err != nil {
			p.logger.Error("error writing rejection diagnostic", "hash", record.Hash, "err", err)
		}
		return Outcome{Kind: OutcomeRejected, Hash: record.Hash, Reasons: reasons}, nil
	}

	if _, err := p.repository.UpsertArticles(ctx, record); err != nil {
		if errors.Is(err, context.Canceled) {
			return Outcome{}, context.Canceled
		}
		return Outcome{}, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}

	p.logger.Debug("stored record", "hash", record.Hash, "url", record.CanonicalURL)
	return Outcome{Kind: OutcomeStored, Hash: record.Hash}, nil
}

// writeRejection emits one structured diagnostic line for a rejected
// record. Lines are serialized so concurrent workers never interleave.
func (p *Pipeline) writeRejection(hash string, reasons []string) error {
	line, err := json.Marshal(rejectionLine{Skipped: true, Hash: hash, Reasons: reasons})
	if err != nil {
		return err
	}
	line = append(line, '\n')

	p.diagMu.Lock()
	defer p.diagMu.Unlock()
	_, err = p.diagnostics.Write(line)
	return err
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
