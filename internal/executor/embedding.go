package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/careerforge/careerforge/internal/cache"
	"github.com/careerforge/careerforge/internal/ledger"
	"github.com/careerforge/careerforge/internal/provider"
	"github.com/careerforge/careerforge/internal/types"
)

// EmbeddingRequest is one governed embedding call.
type EmbeddingRequest struct {
	Text      string
	Model     string
	UserID    string
	SessionID string
}

// DoEmbedding runs a governed embedding call. Embeddings follow the
// same governance path as text (cache, quota, record) but have no
// fallback vendor: only one backend offers an embeddings endpoint.
func (e *Executor) DoEmbedding(ctx context.Context, req *EmbeddingRequest) (*types.EmbeddingResponse, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("text must not be empty")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = e.router.EmbeddingModel()
	}
	key := cache.EmbeddingKey(req.Text, model)

	if entry, ok := e.cache.Get(key); ok {
		e.ledger.RecordUsage(ledger.RecordParams{
			SessionID: req.SessionID,
			UserID:    req.UserID,
			Provider:  entry.Provider,
			Model:     entry.Model,
			Usage:     entry.Usage,
			Cost:      types.ZeroCost(),
			Operation: types.OpEmbedding,
			Cached:    true,
		})
		return &types.EmbeddingResponse{
			Vector:   entry.Vector,
			Usage:    entry.Usage,
			Cost:     types.ZeroCost(),
			Model:    entry.Model,
			Provider: entry.Provider,
			Cached:   true,
		}, nil
	}

	if req.UserID != "" {
		estimated := types.EstimatedTokenUsage(e.estimator.Estimate(req.Text, model), 0)
		decision := e.guard.Check(req.UserID, e.ledger.CalculateCost(model, estimated).TotalCost)
		if !decision.Allowed {
			return nil, types.QuotaError(decision.Reason, types.QuotaRemaining{
				Cost:   decision.RemainingCost,
				Tokens: decision.RemainingTokens,
			})
		}
	}

	vendorName := provider.VendorForModel(model)
	client, ok := e.clients[vendorName]
	if !ok {
		return nil, types.NewError(types.KindVendorUnavailable,
			fmt.Sprintf("no client configured for vendor %q", vendorName), nil)
	}

	result, err := e.embedWithRetry(ctx, client, req.Text, model)
	if err != nil {
		e.ledger.RecordUsage(ledger.RecordParams{
			SessionID: req.SessionID,
			UserID:    req.UserID,
			Provider:  vendorName,
			Model:     model,
			Usage:     types.TokenUsage{},
			Cost:      types.ZeroCost(),
			Operation: types.OpEmbedding,
			Failed:    true,
		})
		return nil, err
	}

	cost := e.ledger.CalculateCost(result.Model, result.Usage)
	e.ledger.RecordUsage(ledger.RecordParams{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Provider:  vendorName,
		Model:     result.Model,
		Usage:     result.Usage,
		Cost:      cost,
		Operation: types.OpEmbedding,
	})
	if req.UserID != "" {
		e.guard.Update(req.UserID, result.Usage, cost.TotalCost)
	}
	e.monitor.Observe(cost.TotalCost)

	if len(result.Vector) > 0 {
		e.cache.Set(key, &cache.Entry{
			Vector:   result.Vector,
			Usage:    result.Usage,
			Model:    result.Model,
			Provider: vendorName,
		}, 0)
	}

	return &types.EmbeddingResponse{
		Vector:   result.Vector,
		Usage:    result.Usage,
		Cost:     cost,
		Model:    result.Model,
		Provider: vendorName,
	}, nil
}

func (e *Executor) embedWithRetry(ctx context.Context, client provider.Client, text, model string) (*types.EmbeddingResult, error) {
	var result *types.EmbeddingResult
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
		defer cancel()

		var err error
		result, err = client.GenerateEmbedding(callCtx, text, model)
		if err == nil {
			return nil
		}
		if !types.IsKind(err, types.KindVendorUnavailable) {
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
	return result, err
}
