// Package codec normalizes uploaded images. Every accepted upload is decoded
// and re-encoded as JPEG at a fixed quality, which caps storage size and
// guarantees a single stored format regardless of the upload format.
package codec

import (
	"bytes"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Quality is the fixed JPEG quality applied to every stored photo.
const Quality = 70

// Normalize decodes data (JPEG or PNG) and re-encodes it as a JPEG at
// Quality. EXIF orientation is applied during decoding since the metadata is
// dropped by re-encoding.
func Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("codec: decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(Quality)); err != nil {
		return nil, fmt.Errorf("codec: encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// TakenAt extracts the EXIF capture timestamp from the original upload bytes.
// It returns nil when the image carries no usable EXIF data.
func TakenAt(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	t, err := x.DateTime()
	if err != nil {
		return nil
	}

	t = t.UTC()
	return &t
}
