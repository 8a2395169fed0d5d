package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/formstore/pkg/storage"
)

// DefaultMaxFieldBytes bounds the plain form values kept per request.
const DefaultMaxFieldBytes int64 = 1 << 20

const copyBufferSize = 32 * 1024

// Config holds the immutable settings of a Pipeline.
type Config struct {
	// MaxPartBytes is the per-part ceiling. Default: DefaultMaxPartBytes.
	MaxPartBytes int64

	// MaxFieldBytes bounds the total size of plain form values.
	// Default: DefaultMaxFieldBytes.
	MaxFieldBytes int64

	// Table holds the field policies. Default: DefaultTable().
	Table *Table

	// Directories maps categories to base directories. A category
	// without an entry is rejected with ReasonUnsupportedDestination.
	// Default: DefaultDirectories().
	Directories map[Category]string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics records part and request metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithTracer sets the tracer. Defaults to the global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// WithNameFunc replaces GenerateName.
func WithNameFunc(fn NameFunc) Option {
	return func(p *Pipeline) {
		p.names = fn
	}
}

// Pipeline routes, validates, bounds and persists the parts of multipart
// requests. It is immutable after New and safe for concurrent use; each
// Process call handles one request's parts sequentially.
type Pipeline struct {
	maxPart   int64
	maxField  int64
	table     *Table
	validator *Validator
	resolver  *Resolver
	backend   storage.Backend
	names     NameFunc
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

// New creates a Pipeline writing accepted parts to backend.
func New(cfg Config, backend storage.Backend, opts ...Option) (*Pipeline, error) {
	if backend == nil {
		return nil, errors.New("ingest: nil storage backend")
	}

	table := cfg.Table
	if table == nil {
		table = DefaultTable()
	}
	dirs := cfg.Directories
	if dirs == nil {
		dirs = DefaultDirectories()
	}

	p := &Pipeline{
		maxPart:   cfg.MaxPartBytes,
		maxField:  cfg.MaxFieldBytes,
		table:     table,
		validator: NewValidator(table),
		resolver:  NewResolver(dirs),
		backend:   backend,
		names:     GenerateName,
		logger:    slog.Default(),
		tracer:    defaultTracer(),
	}
	if p.maxPart <= 0 {
		p.maxPart = DefaultMaxPartBytes
	}
	if p.maxField <= 0 {
		p.maxField = DefaultMaxFieldBytes
	}

	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "ingest")

	return p, nil
}

// Table returns the pipeline's policy table.
func (p *Pipeline) Table() *Table {
	return p.table
}

// Resolver returns the pipeline's storage resolver.
func (p *Pipeline) Resolver() *Resolver {
	return p.resolver
}

// MaxPartBytes returns the per-part ceiling.
func (p *Pipeline) MaxPartBytes() int64 {
	return p.maxPart
}

// ProcessRequest runs the pipeline over the body of a multipart/form-data request.
func (p *Pipeline) ProcessRequest(r *http.Request) (*RequestOutcome, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &ProtocolError{Err: err}
	}
	return p.Process(r.Context(), mr)
}

// Process consumes every part of mr.
//
// Part-level failures are recorded in the outcome and never stop later
// parts. A non-nil error means the request as a whole failed (malformed
// framing, canceled context, oversized form values); in that case the
// artifacts already stored for this request have been removed and their
// outcomes are marked aborted. The outcome is returned in both cases.
func (p *Pipeline) Process(ctx context.Context, mr *multipart.Reader) (*RequestOutcome, error) {
	out := &RequestOutcome{
		ID:    uuid.NewString(),
		Parts: []PartOutcome{},
	}
	log := p.logger.With("request_id", out.ID)

	ctx, span := p.startRequestSpan(ctx, out.ID)
	p.metrics.requestStarted()

	err := p.process(ctx, mr, out, log)
	if err != nil {
		p.rollback(ctx, out, err, log)
		log.Warn("request failed", "parts", len(out.Parts), "error", err)
	} else {
		log.Info("request processed", "parts", len(out.Parts), "stored", len(out.Stored()))
	}

	p.metrics.requestDone(out, err)
	endRequestSpan(span, out, err)

	return out, err
}

func (p *Pipeline) process(ctx context.Context, mr *multipart.Reader, out *RequestOutcome, log *slog.Logger) error {
	var fieldBytes int64

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		mp, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &ProtocolError{Err: err}
		}

		// Named parts without a file name are plain form values.
		if mp.FormName() != "" && mp.FileName() == "" {
			value, err := readField(mp, p.maxField-fieldBytes)
			mp.Close()
			if err != nil {
				return err
			}
			fieldBytes += int64(len(value))
			if out.Fields == nil {
				out.Fields = make(map[string][]string)
			}
			out.Fields[mp.FormName()] = append(out.Fields[mp.FormName()], string(value))
			continue
		}

		po, err := p.processPart(ctx, index, mp, log)
		mp.Close()
		out.Parts = append(out.Parts, po)
		if err != nil {
			return err
		}
	}
}

func readField(r io.Reader, room int64) ([]byte, error) {
	if room < 0 {
		room = 0
	}
	data, err := io.ReadAll(io.LimitReader(r, room+1))
	if err != nil {
		return nil, &ProtocolError{Err: err}
	}
	if int64(len(data)) > room {
		return nil, ErrFieldsTooLarge
	}
	return data, nil
}

func (p *Pipeline) processPart(ctx context.Context, index int, mp *multipart.Part, log *slog.Logger) (PartOutcome, error) {
	part := &Part{
		Field:        mp.FormName(),
		ContentType:  mp.Header.Get("Content-Type"),
		OriginalName: mp.FileName(),
	}

	ctx, span := p.startPartSpan(ctx, part, index)
	po, err := p.storePart(ctx, index, part, mp, log)
	p.metrics.observePart(po)
	endPartSpan(span, po)

	return po, err
}

// storePart drives one part through Validating, Storing and its terminal state.
// The returned error is non-nil only for request-level failures.
func (p *Pipeline) storePart(ctx context.Context, index int, part *Part, body io.Reader, log *slog.Logger) (PartOutcome, error) {
	po := PartOutcome{
		Index:        index,
		Field:        part.Field,
		OriginalName: part.OriginalName,
		ContentType:  part.ContentType,
	}
	log = log.With("index", index, "field", part.Field, "content_type", part.ContentType)

	decision := p.validator.Validate(part)
	if !decision.Accepted {
		log.Debug("part rejected", "reason", decision.Reason)
		return finish(po, StatusRejected, decision.Reason), nil
	}
	po.Category = decision.Category

	dir, err := p.resolver.Resolve(decision.Category)
	if err != nil {
		log.Debug("part rejected", "reason", ReasonUnsupportedDestination, "category", decision.Category)
		return finish(po, StatusRejected, ReasonUnsupportedDestination), nil
	}

	target := storage.Target{Dir: dir, Name: p.names(part.Field, part.OriginalName)}
	log = log.With("target", target.Path())
	log.Debug("part accepted", "category", decision.Category)

	w, err := p.backend.Create(ctx, target, NormalizeContentType(part.ContentType))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return finish(po, StatusAborted, ReasonCanceled), ctxErr
		}
		log.Warn("part aborted", "reason", ReasonStorageIOError, "error", err)
		return finish(po, StatusAborted, ReasonStorageIOError), nil
	}

	guard := NewGuard(body, p.maxPart)
	reason, cause := copyPart(ctx, w, guard)
	po.Size = guard.N()

	if reason != ReasonNone {
		if err := w.Abort(); err != nil {
			log.Error("failed to discard partial artifact", "error", err)
		}
		log.Warn("part aborted", "reason", reason, "bytes", po.Size, "error", cause)

		switch reason {
		case ReasonCanceled, ReasonProtocolError:
			return finish(po, StatusAborted, reason), cause
		default:
			return finish(po, StatusAborted, reason), nil
		}
	}

	if err := w.Commit(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return finish(po, StatusAborted, ReasonCanceled), ctxErr
		}
		log.Warn("part aborted", "reason", ReasonStorageIOError, "error", err)
		return finish(po, StatusAborted, ReasonStorageIOError), nil
	}

	part.Size = po.Size
	po.Target = &target
	log.Debug("part stored", "bytes", po.Size)
	return finish(po, StatusStored, ReasonNone), nil
}

// copyPart streams src into w chunk by chunk, checking ctx before each chunk.
// It returns ReasonNone on success, otherwise the abort reason and its cause.
func copyPart(ctx context.Context, w io.Writer, src *Guard) (Reason, error) {
	buf := make([]byte, copyBufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return ReasonCanceled, err
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return ReasonStorageIOError, werr
			}
		}

		switch {
		case rerr == nil:
		case rerr == io.EOF:
			return ReasonNone, nil
		case errors.Is(rerr, ErrSizeLimitExceeded):
			return ReasonSizeLimitExceeded, rerr
		case ctx.Err() != nil:
			return ReasonCanceled, ctx.Err()
		default:
			return ReasonProtocolError, &ProtocolError{Err: rerr}
		}
	}
}

func finish(po PartOutcome, status Status, reason Reason) PartOutcome {
	po.Status = status
	po.Reason = reason
	if status != StatusStored {
		po.Target = nil
	}
	return po
}

// rollback removes the artifacts of a failed request so none are left
// without a referencing record.
func (p *Pipeline) rollback(ctx context.Context, out *RequestOutcome, err error, log *slog.Logger) {
	reason := reasonFor(err)
	cleanupCtx := context.WithoutCancel(ctx)

	for i := range out.Parts {
		po := &out.Parts[i]
		if po.Status != StatusStored {
			continue
		}
		if rerr := p.backend.Remove(cleanupCtx, *po.Target); rerr != nil {
			log.Error("failed to remove artifact of failed request", "target", po.Target.Path(), "error", rerr)
		}
		*po = finish(*po, StatusAborted, reason)
	}
}
