package leanvox

import (
	"context"
	"io"
	"net/http"
)

// FilesService handles document processing.
type FilesService struct {
	client *Client
}

// ExtractText uploads a document and returns its extracted text, ready to
// feed into generation.
func (s *FilesService) ExtractText(ctx context.Context, filename string, file io.Reader) (*FileExtractResult, error) {
	core, err := s.client.core()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	opts := &requestOptions{
		files: []filePart{{field: "file", filename: filename, data: data}},
	}
	var result FileExtractResult
	if err := core.requestJSON(ctx, http.MethodPost, "/v1/files/extract-text", opts, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
