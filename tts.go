package leanvox

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	maxTextLength       = 10000
	defaultExaggeration = 0.5
)

// TTSService handles speech generation.
type TTSService struct {
	client *Client
}

// generateBody is the wire shape of a generation request. Voice is sent
// only when set; exaggeration only for the pro model.
type generateBody struct {
	Text         string       `json:"text"`
	Model        Model        `json:"model"`
	Language     string       `json:"language"`
	Format       OutputFormat `json:"format"`
	Speed        float64      `json:"speed"`
	Voice        string       `json:"voice,omitempty"`
	Exaggeration *float64     `json:"exaggeration,omitempty"`
	WebhookURL   string       `json:"webhook_url,omitempty"`
}

type dialogueBody struct {
	Model Model          `json:"model"`
	Lines []DialogueLine `json:"lines"`
	GapMs int            `json:"gap_ms"`
}

// normalizeGenerateParams fills in the documented defaults for unset
// fields. Validation runs on the normalized copy.
func normalizeGenerateParams(params GenerateParams) GenerateParams {
	if params.Model == "" {
		params.Model = ModelStandard
	}
	if params.Language == "" {
		params.Language = "en"
	}
	if params.Format == "" {
		params.Format = FormatMP3
	}
	if params.Speed == 0 {
		params.Speed = 1.0
	}
	return params
}

func exaggerationValue(params GenerateParams) float64 {
	if params.Exaggeration == nil {
		return defaultExaggeration
	}
	return *params.Exaggeration
}

// validateGenerateParams checks generation parameters before any network
// I/O. The first failing rule wins.
func validateGenerateParams(params GenerateParams) error {
	if params.Text == "" {
		return &InvalidRequestError{
			Message: "Text cannot be empty",
			Code:    "invalid_request",
			Status:  400,
		}
	}
	if n := utf8.RuneCountInString(params.Text); n > maxTextLength {
		return &InvalidRequestError{
			Message: fmt.Sprintf("Text exceeds maximum of 10,000 characters (got %d)", n),
			Code:    "invalid_request",
			Status:  400,
		}
	}
	if params.Model != ModelStandard && params.Model != ModelPro {
		return &InvalidRequestError{
			Message: fmt.Sprintf("Model must be 'standard' or 'pro', got '%s'", params.Model),
			Code:    "invalid_request",
			Status:  400,
		}
	}
	// Written so NaN fails the range check too.
	if !(params.Speed >= 0.5 && params.Speed <= 2.0) {
		return &InvalidRequestError{
			Message: fmt.Sprintf("Speed must be between 0.5 and 2.0, got %g", params.Speed),
			Code:    "invalid_request",
			Status:  400,
		}
	}
	exaggeration := exaggerationValue(params)
	if params.Model == ModelStandard && exaggeration != defaultExaggeration {
		return &InvalidRequestError{
			Message: "Exaggeration is only supported on the 'pro' model. Use ModelPro or leave Exaggeration unset.",
			Code:    "invalid_request",
			Status:  400,
		}
	}
	if !(exaggeration >= 0.0 && exaggeration <= 1.0) {
		return &InvalidRequestError{
			Message: fmt.Sprintf("Exaggeration must be between 0.0 and 1.0, got %g", exaggeration),
			Code:    "invalid_request",
			Status:  400,
		}
	}
	return nil
}

func buildGenerateBody(params GenerateParams, includeWebhook bool) generateBody {
	body := generateBody{
		Text:     params.Text,
		Model:    params.Model,
		Language: params.Language,
		Format:   params.Format,
		Speed:    params.Speed,
		Voice:    params.Voice,
	}
	if params.Model == ModelPro {
		exaggeration := exaggerationValue(params)
		body.Exaggeration = &exaggeration
	}
	if includeWebhook {
		body.WebhookURL = params.WebhookURL
	}
	return body
}

// Generate converts text to speech and returns the finished result.
// Text longer than the client's auto-async threshold is transparently
// submitted as an async job and polled to completion.
//
// Example:
//
//	result, err := client.TTS.Generate(ctx, leanvox.GenerateParams{
//	    Text:  "Hello, world!",
//	    Voice: "nova",
//	})
//	result.Save(ctx, "output.mp3")
func (s *TTSService) Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	p := normalizeGenerateParams(params)
	if err := validateGenerateParams(p); err != nil {
		return nil, err
	}
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}

	// Limits and thresholds are in characters, not bytes.
	if utf8.RuneCountInString(p.Text) > s.client.autoAsyncThreshold {
		return s.generateViaJob(ctx, core, p)
	}

	var result GenerateResult
	opts := &requestOptions{json: buildGenerateBody(p, false)}
	if err := core.requestJSON(ctx, http.MethodPost, "/v1/tts/generate", opts, &result); err != nil {
		return nil, err
	}
	if result.Model == "" {
		result.Model = p.Model
	}
	if result.Voice == "" {
		result.Voice = p.Voice
	}
	result.httpClient = core.client
	return &result, nil
}

// generateViaJob routes an oversized request through the async job path:
// submit, poll until terminal, surface the audio URL. Cost accounting is
// not echoed back on this path, so CostCents stays zero.
func (s *TTSService) generateViaJob(ctx context.Context, core *httpCore, p GenerateParams) (*GenerateResult, error) {
	job, err := s.submitAsync(ctx, core, p)
	if err != nil {
		return nil, err
	}
	job, err = s.client.Jobs.waitTerminal(ctx, core, job)
	if err != nil {
		return nil, err
	}
	if job.Status == JobFailed {
		message := job.Error
		if message == "" {
			message = "Async generation failed"
		}
		return nil, &InvalidRequestError{Message: message, Code: "job_failed", Status: 400}
	}
	return &GenerateResult{
		AudioURL:   job.AudioURL,
		Model:      p.Model,
		Voice:      p.Voice,
		Characters: utf8.RuneCountInString(p.Text),
		CostCents:  0,
		httpClient: core.client,
	}, nil
}

// Stream streams generated audio as it is synthesized. Streaming supports
// MP3 only; any other format fails before network I/O. The returned
// stream must be closed.
//
// Example:
//
//	stream, err := client.TTS.Stream(ctx, leanvox.GenerateParams{Text: "Hello"})
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	io.Copy(out, stream)
func (s *TTSService) Stream(ctx context.Context, params GenerateParams) (*AudioStream, error) {
	p := normalizeGenerateParams(params)
	if !strings.EqualFold(string(p.Format), string(FormatMP3)) {
		return nil, &StreamingFormatError{
			Message: fmt.Sprintf("Streaming only supports MP3 format. Got format '%s'. Use Generate for other formats.", p.Format),
			Code:    "streaming_format_error",
			Status:  400,
		}
	}
	if err := validateGenerateParams(p); err != nil {
		return nil, err
	}
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	p.Format = FormatMP3
	return core.openStream(ctx, http.MethodPost, "/v1/tts/stream", buildGenerateBody(p, false))
}

// Dialogue generates multi-speaker audio from at least two lines. Lines
// are passed through to the API without per-line validation.
func (s *TTSService) Dialogue(ctx context.Context, params DialogueParams) (*GenerateResult, error) {
	if len(params.Lines) < 2 {
		return nil, &InvalidRequestError{
			Message: "Dialogue requires at least 2 lines",
			Code:    "invalid_request",
			Status:  400,
		}
	}
	model := params.Model
	if model == "" {
		model = ModelPro
	}
	gapMs := params.GapMs
	if gapMs == 0 {
		gapMs = 500
	}
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}

	var result GenerateResult
	opts := &requestOptions{json: dialogueBody{Model: model, Lines: params.Lines, GapMs: gapMs}}
	if err := core.requestJSON(ctx, http.MethodPost, "/v1/tts/dialogue", opts, &result); err != nil {
		return nil, err
	}
	if result.Model == "" {
		result.Model = model
	}
	result.Voice = "dialogue"
	result.httpClient = core.client
	return &result, nil
}

// GenerateAsync submits a generation job and returns it immediately,
// typically in the pending state. Poll with Jobs.Get or block with
// Jobs.Wait.
func (s *TTSService) GenerateAsync(ctx context.Context, params GenerateParams) (*Job, error) {
	p := normalizeGenerateParams(params)
	if err := validateGenerateParams(p); err != nil {
		return nil, err
	}
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	return s.submitAsync(ctx, core, p)
}

func (s *TTSService) submitAsync(ctx context.Context, core *httpCore, p GenerateParams) (*Job, error) {
	var job Job
	opts := &requestOptions{json: buildGenerateBody(p, true)}
	if err := core.requestJSON(ctx, http.MethodPost, "/v1/tts/generate-async", opts, &job); err != nil {
		return nil, err
	}
	if job.Status == "" {
		job.Status = JobPending
	}
	return &job, nil
}
