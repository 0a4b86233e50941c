// Package executor orchestrates one governed AI call as an explicit
// state machine: cache check, quota check, vendor execution with retry
// and fallback, cost recording, and cache write.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/careerforge/careerforge/internal/budget"
	"github.com/careerforge/careerforge/internal/cache"
	"github.com/careerforge/careerforge/internal/ledger"
	"github.com/careerforge/careerforge/internal/provider"
	"github.com/careerforge/careerforge/internal/quota"
	"github.com/careerforge/careerforge/internal/tokenizer"
	"github.com/careerforge/careerforge/internal/types"
)

// state enumerates the call state machine. Transitions are explicit in
// Do; Denied and Failed are terminal.
type state int

const (
	stateCacheCheck state = iota
	stateQuotaCheck
	stateExecutePrimary
	stateExecuteFallback
	stateRecord
	stateCacheWrite
	stateDone
	stateDenied
	stateFailed
)

// expectedOutputTokens is the assumed completion size when estimating
// cost for the quota pre-check and the caller set no max.
const expectedOutputTokens = 512

// Request is one logical governed call.
type Request struct {
	Feature    types.Feature
	Tier       types.Tier
	Complexity types.Complexity

	// UserID empty means an anonymous/system caller: quota is skipped.
	UserID    string
	SessionID string

	Prompt       string
	SystemPrompt string
	// Model pins an explicit model, overriding routing.
	Model       string
	Temperature float64
	MaxTokens   int

	BypassCache bool
	CacheTTL    time.Duration

	Stream  bool
	OnChunk types.ChunkFunc
}

// Options configures executor behavior from the loaded config.
type Options struct {
	MaxRetries     int
	RequestTimeout time.Duration
}

// Executor runs governed calls. All collaborators are injected so tests
// can construct isolated instances; nothing here is process-global.
type Executor struct {
	clients   map[string]provider.Client
	router    *provider.Router
	cache     *cache.Cache
	guard     *quota.Guard
	ledger    *ledger.Ledger
	monitor   *budget.Monitor
	estimator *tokenizer.Estimator
	opts      Options
	logger    *slog.Logger
}

// New creates an Executor.
func New(clients map[string]provider.Client, router *provider.Router, c *cache.Cache,
	guard *quota.Guard, l *ledger.Ledger, monitor *budget.Monitor,
	est *tokenizer.Estimator, opts Options, logger *slog.Logger) *Executor {
	return &Executor{
		clients:   clients,
		router:    router,
		cache:     c,
		guard:     guard,
		ledger:    l,
		monitor:   monitor,
		estimator: est,
		opts:      opts,
		logger:    logger,
	}
}

// Do runs one governed text call through the state machine.
func (e *Executor) Do(ctx context.Context, req *Request) (*types.Response, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}
	requestID := uuid.New().String()

	route := e.router.RouteFor(req.Model, req.Feature, req.Tier, req.Complexity)
	key := cache.GenerateKey(req.Prompt, cache.KeyOptions{
		Model:        route.Primary,
		SystemPrompt: req.SystemPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})

	var (
		result     *types.TextResult
		vendorName string
		lastErr    error
	)

	st := stateCacheCheck
	for {
		switch st {
		case stateCacheCheck:
			if req.BypassCache || req.Stream || !e.cache.Enabled() {
				st = stateQuotaCheck
				continue
			}
			if entry, ok := e.cache.Get(key); ok {
				return e.finishCached(req, requestID, entry), nil
			}
			st = stateQuotaCheck

		case stateQuotaCheck:
			if req.UserID == "" {
				st = stateExecutePrimary
				continue
			}
			decision := e.guard.Check(req.UserID, e.estimateCost(req, route.Primary))
			if !decision.Allowed {
				st = stateDenied
				lastErr = types.QuotaError(decision.Reason, types.QuotaRemaining{
					Cost:   decision.RemainingCost,
					Tokens: decision.RemainingTokens,
				})
				continue
			}
			st = stateExecutePrimary

		case stateExecutePrimary:
			result, vendorName, lastErr = e.attempt(ctx, req, route.Primary, true)
			if lastErr == nil {
				st = stateRecord
				continue
			}
			// Only availability failures are worth a different vendor.
			if types.IsKind(lastErr, types.KindVendorUnavailable) && len(route.Fallbacks) > 0 {
				st = stateExecuteFallback
				continue
			}
			st = stateFailed

		case stateExecuteFallback:
			model := route.Fallbacks[0]
			e.logger.Warn("primary vendor failed, trying fallback",
				"primary_model", route.Primary,
				"fallback_model", model,
				"error", lastErr,
			)
			result, vendorName, lastErr = e.attempt(ctx, req, model, false)
			if lastErr == nil {
				st = stateRecord
				continue
			}
			st = stateFailed

		case stateRecord:
			resp := e.finishSuccess(req, requestID, result, vendorName)
			if e.cache.IsCacheable(req.Prompt, result.Content, req.BypassCache, req.Stream) {
				e.cache.Set(key, &cache.Entry{
					Content:  result.Content,
					Usage:    result.Usage,
					Model:    result.Model,
					Provider: vendorName,
				}, req.CacheTTL)
			}
			return resp, nil

		case stateDenied:
			return nil, lastErr

		case stateFailed:
			e.recordFailure(req, route.Primary)
			return nil, lastErr
		}
	}
}

// attempt calls one model's vendor. The primary attempt retries
// availability failures with exponential backoff up to MaxRetries; the
// fallback gets exactly one shot.
func (e *Executor) attempt(ctx context.Context, req *Request, model string, retry bool) (*types.TextResult, string, error) {
	vendorName := provider.VendorForModel(model)
	client, ok := e.clients[vendorName]
	if !ok {
		return nil, vendorName, types.NewError(types.KindVendorUnavailable,
			fmt.Sprintf("no client configured for vendor %q", vendorName), nil)
	}

	textReq := types.TextRequest{
		Model:        model,
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	}

	// Streaming calls that already delivered chunks must not be
	// replayed: the caller has seen partial output.
	chunksDelivered := 0
	call := func() (*types.TextResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
		defer cancel()

		if req.Stream {
			return client.StreamText(callCtx, textReq, func(chunk string) error {
				chunksDelivered++
				if req.OnChunk != nil {
					return req.OnChunk(chunk)
				}
				return nil
			})
		}
		return client.GenerateText(callCtx, textReq)
	}

	if !retry || e.opts.MaxRetries <= 0 {
		result, err := call()
		return result, vendorName, e.guardReplay(err, chunksDelivered)
	}

	var result *types.TextResult
	operation := func() error {
		var err error
		result, err = call()
		if err == nil {
			return nil
		}
		if !types.IsKind(err, types.KindVendorUnavailable) || chunksDelivered > 0 {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(e.opts.MaxRetries)),
		ctx,
	)
	err := backoff.Retry(operation, policy)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return result, vendorName, e.guardReplay(err, chunksDelivered)
}

// guardReplay downgrades availability errors after partial streaming
// output so the state machine won't attempt a fallback that would
// duplicate content the caller already received.
func (e *Executor) guardReplay(err error, chunksDelivered int) error {
	if err == nil || chunksDelivered == 0 {
		return err
	}
	if types.IsKind(err, types.KindVendorUnavailable) {
		return types.NewError(types.KindUnexpectedResponse,
			"stream failed after partial output", err)
	}
	return err
}

// estimateCost approximates what this request will cost, for the quota
// pre-check. Always an overestimate bias: denial before spend beats a
// small overrun.
func (e *Executor) estimateCost(req *Request, model string) float64 {
	inputTokens := e.estimator.Estimate(req.SystemPrompt+req.Prompt, model)
	outputTokens := req.MaxTokens
	if outputTokens <= 0 {
		outputTokens = expectedOutputTokens
	}
	usage := types.EstimatedTokenUsage(inputTokens, outputTokens)
	return e.ledger.CalculateCost(model, usage).TotalCost
}

// finishCached records a cache hit: economically free, still observable.
func (e *Executor) finishCached(req *Request, requestID string, entry *cache.Entry) *types.Response {
	e.ledger.RecordUsage(ledger.RecordParams{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Provider:  entry.Provider,
		Model:     entry.Model,
		Usage:     entry.Usage,
		Cost:      types.ZeroCost(),
		Operation: e.operation(req),
		Cached:    true,
	})

	return &types.Response{
		Content:   entry.Content,
		Usage:     entry.Usage,
		Cost:      types.ZeroCost(),
		Model:     entry.Model,
		Provider:  entry.Provider,
		Cached:    true,
		RequestID: requestID,
	}
}

// finishSuccess prices the result, appends the ledger record, updates
// the user's quota and notifies the budget monitor.
func (e *Executor) finishSuccess(req *Request, requestID string, result *types.TextResult, vendorName string) *types.Response {
	cost := e.ledger.CalculateCost(result.Model, result.Usage)

	e.ledger.RecordUsage(ledger.RecordParams{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Provider:  vendorName,
		Model:     result.Model,
		Usage:     result.Usage,
		Cost:      cost,
		Operation: e.operation(req),
	})

	if req.UserID != "" {
		e.guard.Update(req.UserID, result.Usage, cost.TotalCost)
	}
	e.monitor.Observe(cost.TotalCost)

	return &types.Response{
		Content:   result.Content,
		Usage:     result.Usage,
		Cost:      cost,
		Model:     result.Model,
		Provider:  vendorName,
		RequestID: requestID,
	}
}

// recordFailure logs a failed request with zero usage and cost so the
// failure is visible in the ledger.
func (e *Executor) recordFailure(req *Request, model string) {
	e.ledger.RecordUsage(ledger.RecordParams{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Provider:  provider.VendorForModel(model),
		Model:     model,
		Usage:     types.TokenUsage{},
		Cost:      types.ZeroCost(),
		Operation: e.operation(req),
		Failed:    true,
	})
}

func (e *Executor) operation(req *Request) types.Operation {
	if req.Stream {
		return types.OpStreamText
	}
	return types.OpGenerateText
}
