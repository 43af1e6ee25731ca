package photos

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded, validated upload ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

var errEmptyPayload = errors.New("image payload is empty")

// DecodeImage accepts a data URL (data:image/png;base64,...) or a bare base64 string
// and checks that the bytes are a supported, decodable image.
func DecodeImage(payload string) (*Image, error) {
	data, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptyPayload
	}

	detected := mimetype.Detect(data)
	contentType := strings.ToLower(detected.String())
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}

	return &Image{
		Data:        data,
		ContentType: contentType,
		Extension:   ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

func decodePayload(payload string) ([]byte, error) {
	value := strings.TrimSpace(payload)
	if value == "" {
		return nil, errEmptyPayload
	}
	if strings.HasPrefix(value, "data:") {
		meta, body, found := strings.Cut(value[len("data:"):], ",")
		if !found {
			return nil, errors.New("malformed data url")
		}
		if !strings.HasSuffix(strings.ToLower(meta), ";base64") {
			return nil, errors.New("data url must be base64 encoded")
		}
		value = body
	}
	value = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, value)

	data, err := base64.StdEncoding.DecodeString(value)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(value, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("decoding base64: %w", err)
}
