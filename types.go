package leanvox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Model selects the synthesis model.
type Model string

// Synthesis model constants.
const (
	ModelStandard Model = "standard"
	ModelPro      Model = "pro"
)

// OutputFormat represents audio output formats.
type OutputFormat string

// Output format constants. Streaming supports MP3 only.
const (
	FormatMP3 OutputFormat = "mp3"
	FormatWAV OutputFormat = "wav"
	FormatOGG OutputFormat = "ogg"
	FormatPCM OutputFormat = "pcm"
)

// JobStatus is the lifecycle state of an async generation job.
type JobStatus string

// Job status constants. Completed and failed are terminal.
const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the job has finished, successfully or not.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Float64 returns a pointer to f, for optional parameter fields.
func Float64(f float64) *float64 {
	return &f
}

// GenerateParams contains parameters for speech generation.
type GenerateParams struct {
	Text     string
	Model    Model        // defaults to ModelStandard
	Voice    string       // server default voice when empty
	Language string       // defaults to "en"
	Format   OutputFormat // defaults to FormatMP3
	Speed    float64      // 0.5–2.0, defaults to 1.0
	// Exaggeration is supported on the pro model only (0.0–1.0).
	// Leave nil for the default of 0.5.
	Exaggeration *float64
	// WebhookURL is notified on completion. GenerateAsync only.
	WebhookURL string
}

// DialogueLine is one line of a multi-speaker dialogue. Lines are passed
// through to the API as-is.
type DialogueLine struct {
	Voice string `json:"voice,omitempty"`
	Text  string `json:"text"`
}

// DialogueParams contains parameters for multi-speaker dialogue.
type DialogueParams struct {
	Lines []DialogueLine
	Model Model // defaults to ModelPro
	GapMs int   // silence between lines, defaults to 500
}

// GenerateResult is the outcome of a generation or dialogue call.
type GenerateResult struct {
	AudioURL         string  `json:"audio_url"`
	Model            Model   `json:"model"`
	Voice            string  `json:"voice"`
	Characters       int     `json:"characters"`
	CostCents        float64 `json:"cost_cents"`
	GeneratedVoiceID string  `json:"generated_voice_id,omitempty"`
	Suggestion       string  `json:"suggestion,omitempty"`

	httpClient *http.Client
}

// Download fetches the generated audio from its CDN URL.
func (r *GenerateResult) Download(ctx context.Context) ([]byte, error) {
	client := r.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.AudioURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ConnectionError{Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &Error{
			Message: fmt.Sprintf("audio download failed (%d)", resp.StatusCode),
			Code:    "download_error",
			Status:  resp.StatusCode,
		}
	}
	return io.ReadAll(resp.Body)
}

// Save downloads the generated audio and writes it to path.
func (r *GenerateResult) Save(ctx context.Context, path string) error {
	data, err := r.Download(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Job is a server-tracked async generation unit. The client never mutates
// job state locally; re-fetch with Jobs.Get to observe progress.
type Job struct {
	ID               string    `json:"id"`
	Status           JobStatus `json:"status"`
	EstimatedSeconds float64   `json:"estimated_seconds"`
	AudioURL         string    `json:"audio_url"`
	Error            string    `json:"error"`
}

// Voice is a selectable voice.
type Voice struct {
	VoiceID         string  `json:"voice_id"`
	Name            string  `json:"name"`
	Model           Model   `json:"model"`
	Language        string  `json:"language"`
	Status          string  `json:"status"`
	Description     string  `json:"description"`
	PreviewURL      string  `json:"preview_url"`
	UnlockCostCents float64 `json:"unlock_cost_cents"`
}

// VoiceList is the grouped voice listing.
type VoiceList struct {
	StandardVoices []Voice `json:"standard_voices"`
	ProVoices      []Voice `json:"pro_voices"`
	ClonedVoices   []Voice `json:"cloned_voices"`
}

// VoiceCloneParams contains parameters for cloning a voice from audio.
// Exactly one of Audio and AudioBase64 must be set.
type VoiceCloneParams struct {
	Name        string
	Description string
	// Audio is a reference recording, uploaded as multipart form data.
	Audio io.Reader
	// AudioBase64 is a base64-encoded reference recording, sent as JSON.
	AudioBase64 string
	// AutoUnlock pays the unlock cost immediately after cloning.
	AutoUnlock bool
}

// VoiceDesignParams contains parameters for designing a voice from a
// text prompt.
type VoiceDesignParams struct {
	Name        string
	Prompt      string
	Language    string
	Description string
}

// VoiceDesign is a voice generated from a text prompt.
type VoiceDesign struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	CostCents float64 `json:"cost_cents"`
}

// FileExtractResult is the outcome of text extraction from a document.
type FileExtractResult struct {
	Text      string `json:"text"`
	Filename  string `json:"filename"`
	CharCount int    `json:"char_count"`
	Truncated bool   `json:"truncated"`
}

// Generation is one historical generation.
type Generation struct {
	ID         string  `json:"id"`
	AudioURL   string  `json:"audio_url"`
	Model      Model   `json:"model"`
	Voice      string  `json:"voice"`
	Characters int     `json:"characters"`
	CostCents  float64 `json:"cost_cents"`
	CreatedAt  string  `json:"created_at"`
}

// GenerationList is a paginated generation listing.
type GenerationList struct {
	Generations []Generation `json:"generations"`
	Total       int          `json:"total"`
}

// AccountBalance is the account's credit position.
type AccountBalance struct {
	BalanceCents    float64 `json:"balance_cents"`
	TotalSpentCents float64 `json:"total_spent_cents"`
}

// UsageEntry is one row of account usage history.
type UsageEntry struct {
	Date       string  `json:"date"`
	Model      Model   `json:"model"`
	Characters int     `json:"characters"`
	CostCents  float64 `json:"cost_cents"`
}

// AccountUsage is the account's usage history.
type AccountUsage struct {
	Entries []UsageEntry `json:"entries"`
}

// UsageParams filters the usage history.
type UsageParams struct {
	Days  int // defaults to 30
	Model Model
	Limit int // defaults to 100
}

// CheckoutSession is a pending credit purchase.
type CheckoutSession struct {
	CheckoutURL string `json:"checkout_url"`
	AmountCents int    `json:"amount_cents"`
}
