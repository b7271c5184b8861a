package mosaic

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/willie68/go_mapmosaic/pkg/fileutils"
)

const jpegQuality = 95

// Config of the mosaic files. The format of Output follows its extension,
// the preview is scaled down to PreviewWidth pixel.
type Config struct {
	Output       string `yaml:"output"`
	Preview      string `yaml:"preview"`
	PreviewWidth int    `yaml:"previewwidth"`
}

// Defaults fills unset values
func (c *Config) Defaults() {
	if c.Output == "" {
		c.Output = "map.png"
	}
	if c.Preview == "" {
		c.Preview = "preview.png"
	}
	if c.PreviewWidth <= 0 {
		c.PreviewWidth = 1600
	}
}

// Encode encodes the image in the format named by the file extension, png
// for unknown extensions
func Encode(img image.Image, filename string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case ".tif", ".tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "can't encode %s", filename)
	}
	return buf.Bytes(), nil
}

// Save writes the image, a former file is replaced only if writing succeeded
func Save(img image.Image, filename string) error {
	data, err := Encode(img, filename)
	if err != nil {
		return err
	}
	return fileutils.WriteAtomic(filename, bytes.NewReader(data))
}

// Preview scales the image down to maxWidth, smaller images are returned as is
func Preview(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
