// Package imagedata turns the data URLs posted by the camera client into raw
// image bytes.
package imagedata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrDecode is returned for payloads without a comma separator or with an
// invalid base64 body.
var ErrDecode = errors.New("invalid image data")

// FallbackMIMEType is used when neither the prefix nor the bytes say what the
// image is.
const FallbackMIMEType = "image/jpeg"

type Image struct {
	Data     []byte
	MIMEType string
}

// Decode splits dataURL on the first comma, drops the metadata prefix and
// base64-decodes the rest.
func Decode(dataURL string) (Image, error) {
	prefix, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data URL separator", ErrDecode)
	}
	payload = strings.Join(strings.Fields(payload), "")
	if payload == "" {
		return Image{}, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil && len(payload)%4 != 0 {
		// some encoders drop the padding
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Image{Data: data, MIMEType: mimeType(prefix, data)}, nil
}

// DataURL re-encodes the image as a canonical base64 data URL.
func (img Image) DataURL() string {
	mt := img.MIMEType
	if mt == "" {
		mt = FallbackMIMEType
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func mimeType(prefix string, data []byte) string {
	if rest, ok := strings.CutPrefix(strings.TrimSpace(prefix), "data:"); ok {
		mt, _, _ := strings.Cut(rest, ";")
		if mt = strings.ToLower(strings.TrimSpace(mt)); strings.HasPrefix(mt, "image/") {
			return mt
		}
	}
	if m := mimetype.Detect(data); strings.HasPrefix(m.String(), "image/") {
		return m.String()
	}
	return FallbackMIMEType
}
