package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// stripMetadata decodes the image and re-encodes only its pixels, which drops EXIF,
// XMP and every other ancillary block. It returns the clean bytes, the MIME type to
// send them as, and the decoded format and bounds.
func stripMetadata(data []byte) ([]byte, string, string, image.Rectangle, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", "", image.Rectangle{}, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	mime := "image/png"
	switch format {
	case "jpeg":
		mime = "image/jpeg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, "", "", image.Rectangle{}, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), mime, format, img.Bounds(), nil
}
