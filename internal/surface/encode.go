package surface

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
)

const DataURLPrefix = "data:image/png;base64,"

// ErrTooLarge is returned for images whose header declares a side longer
// than the decode limit.
var ErrTooLarge = errors.New("surface: image too large")

// DataURL encodes the current raster the way a browser canvas does with
// toDataURL("image/png").
func (s *Surface) DataURL() (string, error) {
	return DataURL(s.Snapshot())
}

func EncodePNG(img image.Image) ([]byte, error) {
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return b.Bytes(), nil
}

func DataURL(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL accepts any base64 data URL carrying an image format
// registered with the image package.
func DecodeDataURL(url string) (image.Image, error) {
	return DecodeDataURLLimit(url, 0)
}

// DecodeDataURLLimit is DecodeDataURL with a bound on each side. The bound
// is checked against the image header before any pixels are decoded.
// A maxSide of zero or less means no bound.
func DecodeDataURLLimit(url string, maxSide int) (image.Image, error) {
	if !strings.HasPrefix(url, "data:") {
		return nil, fmt.Errorf("decode data url: missing data: scheme")
	}
	comma := strings.IndexByte(url, ',')
	if comma < 0 {
		return nil, fmt.Errorf("decode data url: missing payload")
	}
	if !strings.HasSuffix(url[:comma], ";base64") {
		return nil, fmt.Errorf("decode data url: payload is not base64")
	}
	raw, err := base64.StdEncoding.DecodeString(url[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	if maxSide > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		if cfg.Width > maxSide || cfg.Height > maxSide {
			return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrTooLarge, cfg.Width, cfg.Height, maxSide)
		}
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return img, nil
}
