package leanvox

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GenerationsService handles generation history.
type GenerationsService struct {
	client *Client
}

// GenerationListParams paginates the generation history.
type GenerationListParams struct {
	Limit  int // defaults to 20
	Offset int
}

// List returns past generations, newest first.
func (s *GenerationsService) List(ctx context.Context, params *GenerationListParams) (*GenerationList, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	limit, offset := 20, 0
	if params != nil {
		if params.Limit > 0 {
			limit = params.Limit
		}
		offset = params.Offset
	}
	opts := &requestOptions{params: url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}}
	var listing GenerationList
	if err := core.requestJSON(ctx, http.MethodGet, "/v1/generations", opts, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetAudio returns a past generation with a fresh audio URL.
func (s *GenerationsService) GetAudio(ctx context.Context, generationID string) (*Generation, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	var generation Generation
	if err := core.requestJSON(ctx, http.MethodGet, "/v1/generations/"+generationID+"/audio", nil, &generation); err != nil {
		return nil, err
	}
	return &generation, nil
}

// Delete removes a generation from the history.
func (s *GenerationsService) Delete(ctx context.Context, generationID string) error {
	core, err := s.client.core()
	if err != nil {
		return err
	}
	return core.requestJSON(ctx, http.MethodDelete, "/v1/generations/"+generationID, nil, nil)
}
