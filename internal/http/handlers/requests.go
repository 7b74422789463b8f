package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"contentstudio/internal/domain"
)

const maxBodyBytes = 12 << 20 // seed images arrive inline as base64

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// decodeInlineImage accepts either a data URL or bare base64 and returns
// the raw bytes plus the mime type.
func decodeInlineImage(value, fallbackMime string) ([]byte, string, error) {
	mime := fallbackMime
	if strings.HasPrefix(value, "data:") {
		rest := strings.TrimPrefix(value, "data:")
		sep := strings.Index(rest, ";base64,")
		if sep < 0 {
			return nil, "", fmt.Errorf("%w: image must be base64 encoded", domain.ErrInvalidInput)
		}
		mime = rest[:sep]
		value = rest[sep+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode image: %v", domain.ErrInvalidInput, err)
	}
	if mime == "" {
		mime = "image/png"
	}
	return raw, mime, nil
}
