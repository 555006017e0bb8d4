package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"refundwatch/internal/retry"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

// Executor runs the case-list fetch inside an authenticated portal tab.
// Script-execution failures and HTTP errors are retried with the given
// policy; a malformed reply is terminal for the call.
type Executor struct {
	policy retry.Policy
	log    *zap.Logger
}

// NewExecutor returns an executor using the given retry policy.
func NewExecutor(policy retry.Policy, log *zap.Logger) *Executor {
	return &Executor{policy: policy, log: log}
}

// Fetch evaluates the fetch script in the page and classifies the result.
func (e *Executor) Fetch(ctx context.Context, page *rod.Page, orderSN string) Outcome {
	out := Outcome{Kind: OutcomeExecutionError}
	_ = e.policy.Do(ctx, func(attempt int) error {
		res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
			JS:           fetchScript,
			JSArgs:       []interface{}{orderSN},
			ByValue:      true,
			AwaitPromise: true,
		})
		if err != nil {
			out = Outcome{Kind: OutcomeExecutionError, Err: err}
			e.log.Warn("fetch script evaluation failed",
				zap.String("order", orderSN),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		if res == nil {
			out = Outcome{Kind: OutcomeMalformed}
			return nil
		}

		raw, err := res.Value.MarshalJSON()
		if err != nil {
			out = Outcome{Kind: OutcomeMalformed}
			return nil
		}

		var retryable bool
		out, retryable = decodeOutcome(raw)
		if retryable {
			e.log.Warn("portal returned an HTTP error",
				zap.String("order", orderSN),
				zap.Int("status", out.Status),
				zap.Int("attempt", attempt))
			return fmt.Errorf("portal http %d", out.Status)
		}
		return nil
	})
	return out
}

// envelope decodes both the normal reply and the script's HTTP-error
// sentinel in one pass.
type envelope struct {
	HTTPError int `json:"_http_error"`
	Response
}

// decodeOutcome classifies the raw evaluation result. The second return
// reports whether the attempt may be retried.
func decodeOutcome(raw []byte) (Outcome, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Outcome{Kind: OutcomeMalformed}, false
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Outcome{Kind: OutcomeMalformed}, false
	}
	if env.HTTPError != 0 {
		return Outcome{Kind: OutcomeHTTPError, Status: env.HTTPError}, true
	}
	resp := env.Response
	return Outcome{Kind: OutcomeSuccess, Raw: &resp}, false
}
