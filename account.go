package leanvox

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AccountService handles account and billing operations.
type AccountService struct {
	client *Client
}

// Balance returns the current credit balance.
func (s *AccountService) Balance(ctx context.Context) (*AccountBalance, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	var balance AccountBalance
	if err := core.requestJSON(ctx, http.MethodGet, "/v1/account/balance", nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// Usage returns usage history for the account.
func (s *AccountService) Usage(ctx context.Context, params *UsageParams) (*AccountUsage, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	days, limit := 30, 100
	var model Model
	if params != nil {
		if params.Days > 0 {
			days = params.Days
		}
		if params.Limit > 0 {
			limit = params.Limit
		}
		model = params.Model
	}
	query := url.Values{
		"days":  {strconv.Itoa(days)},
		"limit": {strconv.Itoa(limit)},
	}
	if model != "" {
		query.Set("model", string(model))
	}
	var usage AccountUsage
	if err := core.requestJSON(ctx, http.MethodGet, "/v1/account/usage", &requestOptions{params: query}, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

type checkoutBody struct {
	AmountCents int `json:"amount_cents"`
}

// BuyCredits starts a checkout for the given amount of credits.
func (s *AccountService) BuyCredits(ctx context.Context, amountCents int) (*CheckoutSession, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	opts := &requestOptions{json: checkoutBody{AmountCents: amountCents}}
	var session CheckoutSession
	if err := core.requestJSON(ctx, http.MethodPost, "/v1/billing/checkout", opts, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
