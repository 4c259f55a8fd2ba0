package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecommerce-payments/internal/domain"
	"ecommerce-payments/internal/domain/model"
	"ecommerce-payments/internal/infra/logging"
)

type chargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
	CardNumber    string `json:"card_number"`
	CardType      string `json:"card_type"`
}

type errorResponse struct {
	Error    string `json:"error"`
	BasketID string `json:"basket_id,omitempty"`
	Status   int    `json:"gateway_status,omitempty"`
}

func (s *Server) handleCharge(w http.ResponseWriter, r *http.Request) {
	var req model.ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrderNumber == "" || req.BasketID == "" || req.Currency == "" || req.Token == "" {
		http.Error(w, "order_number, basket_id, currency and token are required", http.StatusBadRequest)
		return
	}

	ctx := logging.WithBasketID(logging.WithOrderNumber(r.Context(), req.OrderNumber), req.BasketID)
	l := logging.With(ctx, s.log)

	// Transport-boundary dedup: the processor core itself never deduplicates,
	// so a retried submission for the same order must be caught here.
	idemKey := "idem:charge:" + req.OrderNumber
	stored, inFlight, found, err := s.idem.Lookup(ctx, idemKey)
	if err != nil {
		l.Error().Err(err).Msg("idempotency lookup failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if found {
		if inFlight {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "charge_in_flight", BasketID: req.BasketID})
			return
		}
		w.Header().Set("Idempotent-Replay", "true")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(stored))
		return
	}
	claimed, err := s.idem.Begin(ctx, idemKey)
	if err != nil {
		l.Error().Err(err).Msg("idempotency claim failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if !claimed {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "charge_in_flight", BasketID: req.BasketID})
		return
	}

	basket := &model.Basket{
		ID:           req.BasketID,
		OrderNumber:  req.OrderNumber,
		Currency:     req.Currency,
		TotalInclTax: req.Total,
	}
	l.Debug().Str("token", logging.Redact(req.Token, false)).Msg("processing charge")

	result, err := s.processor.HandleProcessorResponse(ctx, req.Token, basket)
	if err != nil {
		var declined *domain.TransactionDeclinedError
		switch {
		case errors.As(err, &declined):
			// No charge was created, so the customer may retry the same order
			// with another payment method.
			_ = s.idem.Release(ctx, idemKey)
			writeJSON(w, http.StatusPaymentRequired, errorResponse{Error: "transaction_declined", BasketID: declined.BasketID, Status: declined.Status})
		case errors.Is(err, domain.ErrNegativeAmount), errors.Is(err, domain.ErrInvalidArgument):
			_ = s.idem.Release(ctx, idemKey)
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			// Infrastructure failure: free the key so the checkout may retry.
			_ = s.idem.Release(ctx, idemKey)
			l.Error().Err(err).Msg("charge failed")
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "gateway_error"})
		}
		return
	}

	resp := chargeResponse{
		TransactionID: result.TransactionID,
		Total:         result.Total.StringFixed(2),
		Currency:      result.Currency,
		CardNumber:    result.CardNumber,
		CardType:      string(result.CardType),
	}
	b, _ := json.Marshal(resp)
	if err := s.idem.Complete(ctx, idemKey, b); err != nil {
		l.Warn().Err(err).Msg("failed to store idempotent charge outcome")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(b)
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req model.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrderNumber == "" || req.OriginalTransactionID == "" {
		http.Error(w, "order_number and transaction_id are required", http.StatusBadRequest)
		return
	}

	ctx := logging.WithOrderNumber(r.Context(), req.OrderNumber)
	order := &model.Order{Number: req.OrderNumber, BasketID: req.BasketID}

	refundID, err := s.processor.IssueCredit(ctx, order, req.OriginalTransactionID)
	if err != nil {
		logging.With(ctx, s.log).Error().Err(err).Msg("refund failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "gateway_error"})
		return
	}
	writeJSON(w, http.StatusOK, model.RefundResult{TransactionID: refundID})
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	basketID := r.URL.Query().Get("basket_id")
	transactionID := r.URL.Query().Get("transaction_id")

	var (
		recs []*model.GatewayResponseRecord
		err  error
	)
	switch {
	case basketID != "":
		recs, err = s.responses.ListByBasket(r.Context(), basketID)
	case transactionID != "":
		recs, err = s.responses.ListByTransactionID(r.Context(), transactionID)
	default:
		http.Error(w, "basket_id or transaction_id is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Failed to list responses", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []*model.GatewayResponseRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleMintToken exchanges the service API key (already checked by the
// middleware) for a short-lived reconciliation JWT.
func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	tok, err := s.auth.Mint("reconciliation")
	if err != nil {
		http.Error(w, "Failed to mint token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
