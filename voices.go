package leanvox

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// VoicesService handles voice management operations.
type VoicesService struct {
	client *Client
}

// List returns all voices available to the account, grouped by kind.
// Pass a model to filter.
func (s *VoicesService) List(ctx context.Context, model Model) (*VoiceList, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	opts := &requestOptions{}
	if model != "" {
		opts.params = url.Values{"model": {string(model)}}
	}
	var listing VoiceList
	if err := core.requestJSON(ctx, http.MethodGet, "/v1/voices", opts, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListCurated returns the curated voice selection.
func (s *VoicesService) ListCurated(ctx context.Context) ([]Voice, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	var listing struct {
		Voices []Voice `json:"voices"`
	}
	if err := core.requestJSON(ctx, http.MethodGet, "/v1/voices/curated", nil, &listing); err != nil {
		return nil, err
	}
	return listing.Voices, nil
}

type voiceCloneJSONBody struct {
	Name        string `json:"name"`
	AudioBase64 string `json:"audio_base64"`
	Description string `json:"description"`
}

// Clone creates a custom voice from a reference recording. The audio can
// be supplied as a reader (uploaded as multipart form data) or as a
// base64 string (sent as JSON); exactly one must be set.
func (s *VoicesService) Clone(ctx context.Context, params VoiceCloneParams) (*Voice, error) {
	if (params.Audio == nil) == (params.AudioBase64 == "") {
		return nil, &InvalidRequestError{
			Message: "Exactly one of Audio and AudioBase64 must be set",
			Code:    "invalid_request",
			Status:  400,
		}
	}
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}

	var opts *requestOptions
	if params.AudioBase64 != "" {
		opts = &requestOptions{json: voiceCloneJSONBody{
			Name:        params.Name,
			AudioBase64: params.AudioBase64,
			Description: params.Description,
		}}
	} else {
		data, err := io.ReadAll(params.Audio)
		if err != nil {
			return nil, err
		}
		opts = &requestOptions{
			fields: map[string]string{
				"name":        params.Name,
				"description": params.Description,
			},
			files: []filePart{{
				field:       "audio",
				filename:    "audio.wav",
				contentType: "audio/wav",
				data:        data,
			}},
		}
	}

	var voice Voice
	if err := core.requestJSON(ctx, http.MethodPost, "/v1/voices/clone", opts, &voice); err != nil {
		return nil, err
	}

	if params.AutoUnlock && voice.Status == "pending_unlock" {
		if err := s.Unlock(ctx, voice.VoiceID); err != nil {
			return nil, err
		}
		voice.Status = "active"
	}

	return &voice, nil
}

// Unlock pays the unlock cost for a cloned voice.
func (s *VoicesService) Unlock(ctx context.Context, voiceID string) error {
	core, err := s.client.core()
	if err != nil {
		return err
	}
	return core.requestJSON(ctx, http.MethodPost, "/v1/voices/"+voiceID+"/unlock", nil, nil)
}

type voiceDesignBody struct {
	Name        string `json:"name"`
	Prompt      string `json:"prompt"`
	Language    string `json:"language,omitempty"`
	Description string `json:"description,omitempty"`
}

// Design creates a voice from a text prompt.
func (s *VoicesService) Design(ctx context.Context, params VoiceDesignParams) (*VoiceDesign, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	opts := &requestOptions{json: voiceDesignBody{
		Name:        params.Name,
		Prompt:      params.Prompt,
		Language:    params.Language,
		Description: params.Description,
	}}
	var design VoiceDesign
	if err := core.requestJSON(ctx, http.MethodPost, "/v1/voices/design", opts, &design); err != nil {
		return nil, err
	}
	return &design, nil
}

// ListDesigns returns all designed voices.
func (s *VoicesService) ListDesigns(ctx context.Context) ([]VoiceDesign, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	var listing struct {
		Designs []VoiceDesign `json:"designs"`
	}
	if err := core.requestJSON(ctx, http.MethodGet, "/v1/voices/designs", nil, &listing); err != nil {
		return nil, err
	}
	return listing.Designs, nil
}

// Delete removes a voice.
func (s *VoicesService) Delete(ctx context.Context, voiceID string) error {
	core, err := s.client.core()
	if err != nil {
		return err
	}
	return core.requestJSON(ctx, http.MethodDelete, "/v1/voices/"+voiceID, nil, nil)
}
