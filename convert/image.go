package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/hazyhaar/docmerge/render"
)

// imageToPDF embeds a raster image as a single PDF page sized to the image.
// The color mode is normalized first: transparency and palettes are
// flattened onto a white background, since PDF raster embedding needs a
// fixed opaque color model.
func (c *Converter) imageToPDF(srcPath, dstPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return &ConversionError{File: srcPath, Err: err}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return &ConversionError{File: srcPath, Err: fmt.Errorf("decode image: %w", err)}
	}

	flat := flatten(img)
	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return &ConversionError{File: srcPath, Err: fmt.Errorf("encode image: %w", err)}
	}

	b := flat.Bounds()
	if err := render.WriteImagePage(dstPath, buf.Bytes(), b.Dx(), b.Dy()); err != nil {
		return &ConversionError{File: srcPath, Err: err}
	}
	return nil
}

// flatten composites an image onto a white opaque background, discarding
// alpha and palette indirection.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// thumbnail downscales an image to fit within maxW×maxH pixels, preserving
// aspect ratio. Images already inside the box are returned unchanged.
func thumbnail(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	fw, fh := render.FitBox(float64(b.Dx()), float64(b.Dy()), float64(maxW), float64(maxH))
	w, h := int(fw), int(fh)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
