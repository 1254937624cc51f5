package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/jrsteele09/medihelp-client/request"
)

// Chat sends a message to the health assistant and returns its reply. An
// unrecognised reply shape yields a generic apology rather than an error.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	body, err := c.fetch(ctx, call{
		op:     "Chat",
		method: http.MethodPost,
		path:   "/chat/interact/",
		json:   map[string]string{"message": message},
		auth:   requiredAuth,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return defaultChatReply, nil
	}
	// a body that is not JSON is the reply itself
	return chatReply(request.SafeParseJSON[any](text, text)), nil
}

// DiagnoseSkin uploads an image as the multipart field "image" and returns the
// analysis with defaults filled in for anything the model left out.
func (c *Client) DiagnoseSkin(ctx context.Context, filename string, image io.Reader) (*SkinDiagnosis, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Client.DiagnoseSkin] create form file")
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, apperrors.Wrapf(err, "[Client.DiagnoseSkin] read image")
	}
	if err := w.Close(); err != nil {
		return nil, apperrors.Wrapf(err, "[Client.DiagnoseSkin] close form")
	}

	body, err := c.fetch(ctx, call{
		op:          "DiagnoseSkin",
		method:      http.MethodPost,
		path:        "/skin-diagnosis/",
		raw:         buf.Bytes(),
		contentType: w.FormDataContentType(),
		auth:        requiredAuth,
	})
	if err != nil {
		return nil, err
	}
	m, err := decodeObject(body, "skin diagnosis")
	if err != nil {
		return nil, err
	}
	result := parseSkinDiagnosis(m)
	return &result, nil
}
