package leanvox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// RealtimeParams configures a realtime session. Text is not part of the
// setup; send it incrementally with SendText.
type RealtimeParams struct {
	Voice    string
	Model    Model        // defaults to ModelStandard
	Language string       // defaults to "en"
	Format   OutputFormat // defaults to FormatMP3
	Speed    float64      // defaults to 1.0
}

// RealtimeStream is a live duplex synthesis session. Close it on every
// exit path; Close is idempotent.
type RealtimeStream struct {
	conn      *websocket.Conn
	requestID string
	ready     chan struct{}
	done      chan struct{}
	err       error
	errMu     sync.RWMutex
	audioCh   chan []byte
	closeOnce sync.Once
}

type realtimeSetupMessage struct {
	Type     string       `json:"type"`
	Voice    string       `json:"voice,omitempty"`
	Model    Model        `json:"model"`
	Language string       `json:"language"`
	Format   OutputFormat `json:"format"`
	Speed    float64      `json:"speed"`
}

type realtimeMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Audio     string `json:"audio,omitempty"`
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
}

const (
	realtimeMsgSetup       = "setup"
	realtimeMsgReady       = "ready"
	realtimeMsgText        = "text"
	realtimeMsgAudio       = "audio"
	realtimeMsgEndOfStream = "end_of_stream"
	realtimeMsgError       = "error"
)

// Realtime opens a realtime synthesis session over WebSocket.
//
// Example:
//
//	stream, err := client.TTS.Realtime(ctx, leanvox.RealtimeParams{Voice: "nova"})
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	stream.WaitReady(ctx)
//	stream.SendText("Hello, world!")
//	stream.SendEndOfStream()
//
//	for chunk := range stream.Audio() {
//	    // Process audio chunk
//	}
func (s *TTSService) Realtime(ctx context.Context, params RealtimeParams) (*RealtimeStream, error) {
	if s.client.apiKey == "" {
		return nil, missingKeyError()
	}
	wsURL := s.client.wsURL + "/v1/tts/realtime"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.client.apiKey)
	header.Set("User-Agent", userAgent)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, &ConnectionError{Message: "failed to connect to realtime session: " + err.Error(), Err: err}
	}

	p := normalizeGenerateParams(GenerateParams{
		Model:    params.Model,
		Voice:    params.Voice,
		Language: params.Language,
		Format:   params.Format,
		Speed:    params.Speed,
	})

	stream := &RealtimeStream{
		conn:    conn,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		audioCh: make(chan []byte, 100),
	}

	setup := realtimeSetupMessage{
		Type:     realtimeMsgSetup,
		Voice:    p.Voice,
		Model:    p.Model,
		Language: p.Language,
		Format:   p.Format,
		Speed:    p.Speed,
	}
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return nil, &ConnectionError{Message: "failed to send setup message: " + err.Error(), Err: err}
	}

	go stream.handleMessages()

	return stream, nil
}

func (s *RealtimeStream) handleMessages() {
	defer close(s.done)
	defer close(s.audioCh)

	readySignaled := false

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.setError(&ConnectionError{Message: "realtime read error: " + err.Error(), Err: err})
			if !readySignaled {
				close(s.ready)
			}
			return
		}

		var msg realtimeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case realtimeMsgReady:
			s.requestID = msg.RequestID
			if !readySignaled {
				close(s.ready)
				readySignaled = true
			}

		case realtimeMsgAudio:
			decoded, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				continue
			}
			select {
			case s.audioCh <- decoded:
			default:
				// Channel full, drop audio
			}

		case realtimeMsgEndOfStream:
			return

		case realtimeMsgError:
			s.setError(&Error{Message: msg.Message, Code: msg.Code, Status: 0})
			if !readySignaled {
				close(s.ready)
			}
			return
		}
	}
}

func (s *RealtimeStream) setError(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

func (s *RealtimeStream) getError() error {
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.err
}

// WaitReady waits for the session to be ready for text.
func (s *RealtimeStream) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.getError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendText sends a text fragment to be synthesized.
func (s *RealtimeStream) SendText(text string) error {
	return s.conn.WriteJSON(realtimeMessage{Type: realtimeMsgText, Text: text})
}

// SendEndOfStream signals the end of input.
func (s *RealtimeStream) SendEndOfStream() error {
	return s.conn.WriteJSON(realtimeMessage{Type: realtimeMsgEndOfStream})
}

// Audio returns a channel that receives audio chunks. It is closed when
// the session ends.
func (s *RealtimeStream) Audio() <-chan []byte {
	return s.audioCh
}

// Collect waits for the session to finish and returns the concatenated
// audio.
func (s *RealtimeStream) Collect(ctx context.Context) ([]byte, error) {
	var audio []byte

	for {
		select {
		case chunk, ok := <-s.audioCh:
			if !ok {
				if err := s.getError(); err != nil {
					return nil, err
				}
				return audio, nil
			}
			audio = append(audio, chunk...)

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// RequestID returns the server-assigned request ID.
func (s *RealtimeStream) RequestID() string {
	return s.requestID
}

// Close closes the session.
func (s *RealtimeStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

// Done returns a channel that's closed when the session ends.
func (s *RealtimeStream) Done() <-chan struct{} {
	return s.done
}
