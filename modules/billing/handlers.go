package billing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/proration"
	"github.com/dmitrymomot/billingkit/pkg/upgrade"
)

type handlers struct {
	opts RouterOptions
}

// requestContext applies the configured per-request timeout.
func (h *handlers) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.opts.Timeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), h.opts.Timeout)
}

// GET /entitlement?account_id=...&feature=...
func (h *handlers) entitlement(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}
	feature := r.URL.Query().Get("feature")
	if feature == "" {
		writeError(w, http.StatusBadRequest, "feature is required")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	// HasFeature fails closed on timeouts and storage errors, so this
	// endpoint always answers with a boolean.
	allowed := h.opts.Entitlements.HasFeature(ctx, accountID, catalog.Feature(feature))
	writeJSON(w, http.StatusOK, map[string]any{"allowed": allowed})
}

// GET /quota?account_id=...&category=...
func (h *handlers) quota(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	used, err := h.opts.Usage.Current(ctx, accountID, category)
	if err != nil {
		h.fail(w, r, "count usage", err)
		return
	}
	remaining, err := h.opts.Usage.Remaining(ctx, accountID, category)
	if err != nil {
		h.fail(w, r, "compute remaining", err)
		return
	}

	resp := map[string]any{
		"used":      used,
		"unlimited": remaining.Unlimited,
	}
	if !remaining.Unlimited {
		resp["remaining"] = remaining.N
		resp["limit"] = used + remaining.N
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /quote?account_id=...&plan_id=...&cycle=...
func (h *handlers) quote(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}
	planID := r.URL.Query().Get("plan_id")
	cycle := catalog.Cycle(r.URL.Query().Get("cycle"))

	ctx, cancel := h.requestContext(r)
	defer cancel()

	quote, err := h.opts.Quotes.Quote(ctx, accountID, planID, cycle)
	if err != nil {
		h.declineOrFail(w, r, "quote proration", err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse(quote))
}

type changeRequest struct {
	AccountID string `json:"account_id"`
	PlanID    string `json:"plan_id"`
	Cycle     string `json:"cycle"`
	RequestID string `json:"request_id,omitempty"`
}

// POST /upgrade
func (h *handlers) commitUpgrade(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account_id")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	var opts []upgrade.CommitOption
	if req.RequestID != "" {
		opts = append(opts, upgrade.WithRequestID(req.RequestID))
	}

	entry, err := h.opts.Upgrades.Commit(ctx, accountID, req.PlanID, catalog.Cycle(req.Cycle), opts...)
	if err != nil {
		h.declineOrFail(w, r, "commit upgrade", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from_plan_id":  entry.FromPlanID,
		"to_plan_id":    entry.ToPlanID,
		"from_cycle":    entry.FromCycle,
		"to_cycle":      entry.ToCycle,
		"credit_amount": moneyString(entry.CreditAmount),
		"amount_paid":   moneyString(entry.AmountPaid),
		"currency":      entry.AmountPaid.Currency,
		"committed_at":  entry.CreatedAt,
	})
}

// POST /downgrade
func (h *handlers) scheduleDowngrade(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account_id")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.opts.Upgrades.ScheduleDowngrade(ctx, accountID, req.PlanID, catalog.Cycle(req.Cycle)); err != nil {
		h.declineOrFail(w, r, "schedule downgrade", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scheduled": true})
}

// declineOrFail maps domain declines to 4xx responses and everything else
// to a logged 500.
func (h *handlers) declineOrFail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, proration.ErrUnknownPlan) || errors.Is(err, upgrade.ErrUnknownPlan):
		writeError(w, http.StatusUnprocessableEntity, "unknown plan")
	case errors.Is(err, proration.ErrUnknownCycle):
		writeError(w, http.StatusUnprocessableEntity, "unknown billing cycle")
	case errors.Is(err, proration.ErrNoActiveSubscription) || errors.Is(err, upgrade.ErrNoActiveSubscription):
		writeError(w, http.StatusUnprocessableEntity, "no active subscription to upgrade")
	case errors.Is(err, upgrade.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid plan change")
	case errors.Is(err, upgrade.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, "subscription changed concurrently, retry")
	default:
		h.fail(w, r, op, err)
	}
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.opts.Log.ErrorContext(r.Context(), "billing request failed",
		slog.String("op", op), slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, "temporary failure, retry")
}

func parseAccountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	accountID, err := uuid.Parse(r.URL.Query().Get("account_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account_id")
		return uuid.Nil, false
	}
	return accountID, true
}

func quoteResponse(q proration.Quote) map[string]any {
	return map[string]any{
		"current_plan_id":     q.CurrentPlanID,
		"target_plan_id":      q.TargetPlanID,
		"current_price":       moneyString(q.CurrentPrice),
		"target_price":        moneyString(q.TargetPrice),
		"total_days":          q.TotalDays,
		"days_used":           q.DaysUsed,
		"days_remaining":      q.DaysRemaining,
		"credit_amount":       moneyString(q.CreditAmount),
		"amount_to_pay":       moneyString(q.AmountToPay),
		"discount_percentage": q.DiscountPercent.StringFixed(1),
		"currency":            q.TargetPrice.Currency,
	}
}

func moneyString(m catalog.Money) string {
	return decimal.New(m.Amount, -2).StringFixed(2)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
