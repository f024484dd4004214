package media

import (
	"bytes"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// aspectThreshold steers which axis drives the resize: portrait-ish
// images (height/width above the threshold) are bounded by height,
// landscape ones by width.
const aspectThreshold = 0.75

const (
	targetWidth  = 1280
	targetHeight = 960
)

// orientationTag extracts the EXIF orientation value, defaulting to 1
// (normal) for images without usable EXIF data.
func orientationTag(data []byte) int {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	field, err := meta.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	value, err := field.Int(0)
	if err != nil {
		return 1
	}
	return value
}

// rotateForOrientation bakes the EXIF orientation into the pixels.
// Only the three rotation-only tags are honored; mirrored variants pass
// through untouched.
func rotateForOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 3:
		return imaging.Rotate180(img)
	case 6:
		return imaging.Rotate270(img) // -90°
	case 8:
		return imaging.Rotate90(img) // +90°
	default:
		return img
	}
}

// resizeDimensions picks the stored size for a source image. The long
// edge lands on 1280 for width-dominant shots and 960 for
// height-dominant ones; an exact threshold hit pins both.
func resizeDimensions(width, height int) (int, int) {
	aspect := float64(height) / float64(width)
	switch {
	case aspect > aspectThreshold:
		newHeight := targetHeight
		newWidth := int(math.Ceil(float64(newHeight) / aspect))
		return newWidth, newHeight
	case aspect < aspectThreshold:
		newWidth := targetWidth
		newHeight := int(math.Ceil(float64(newWidth) * aspect))
		return newWidth, newHeight
	default:
		return targetWidth, targetHeight
	}
}

// processImage decodes an uploaded image, applies the EXIF rotation and
// the aspect-driven resize and returns the result ready for encoding.
func processImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	img = rotateForOrientation(img, orientationTag(data))

	bounds := img.Bounds()
	width, height := resizeDimensions(bounds.Dx(), bounds.Dy())
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}
