package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/SigNoz/storefront-go-client/internal/models"
)

// CallOption adjusts a Request built by the JSON helpers.
type CallOption func(*Request)

// WithoutAuth marks a call as unauthenticated (login, register, refresh).
func WithoutAuth() CallOption {
	return func(r *Request) {
		r.NoAuth = true
	}
}

// WithRoute sets the path template recorded in metrics, e.g.
// /shop/products/{id}/. Calls without one record the literal path.
func WithRoute(template string) CallOption {
	return func(r *Request) {
		r.Route = template
	}
}

// WithQuery sets the query string.
func WithQuery(q url.Values) CallOption {
	return func(r *Request) {
		r.Query = q
	}
}

// FilePart is an optional file attached to a multipart request.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// GetJSON issues a GET and decodes the validated body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}, opts ...CallOption) error {
	return c.SendJSON(ctx, http.MethodGet, path, nil, out, opts...)
}

// SendJSON marshals in (when non-nil), sends it, and decodes the validated
// response into out (when non-nil).
func (c *Client) SendJSON(ctx context.Context, method, path string, in, out interface{}, opts ...CallOption) error {
	req := &Request{Method: method, Path: path}
	if in != nil {
		body, err := marshal(in)
		if err != nil {
			return err
		}
		req.Body = body
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(resp.Body, out)
}

// Delete issues a DELETE and ignores the body.
func (c *Client) Delete(ctx context.Context, path string, opts ...CallOption) error {
	return c.SendJSON(ctx, http.MethodDelete, path, nil, nil, opts...)
}

// PatchMultipart sends fields and an optional file as multipart/form-data.
func (c *Client) PatchMultipart(ctx context.Context, path string, fields map[string]string, file *FilePart, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("failed to copy form file: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	resp, err := c.Do(ctx, &Request{
		Method:      http.MethodPatch,
		Path:        path,
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(resp.Body, out)
}

func marshal(v interface{}) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

func decode(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidResponse, err)
	}
	return models.ValidateResponse(out)
}
