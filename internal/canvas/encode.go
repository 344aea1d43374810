package canvas

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Transformed images may come back as JPEG.
	"image/png"
	"strings"
)

// Keys used in the local key-value table.
const (
	DoodleKey = "pixel-paint-doodle"
	ColorKey  = "pixel-paint-color"
)

// ErrNotDataURI is returned for strings without a base64 data URI prefix.
var ErrNotDataURI = errors.New("not a base64 data uri")

// Image returns the canvas as an RGBA image, one pixel per cell.
func (c *Canvas) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.w, c.h))
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			img.SetRGBA(x, y, c.cells[y*c.w+x])
		}
	}
	return img
}

// EncodePNG writes the canvas as a PNG upscaled by scale.
func (c *Canvas) EncodePNG(scale int) ([]byte, error) {
	if scale < 1 {
		scale = 1
	}
	src := c.Image()
	img := image.NewRGBA(image.Rect(0, 0, c.w*scale, c.h*scale))
	for y := 0; y < c.h*scale; y++ {
		for x := 0; x < c.w*scale; x++ {
			img.SetRGBA(x, y, src.RGBAAt(x/scale, y/scale))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeDataURI returns the canvas as data:image/png;base64,...
func (c *Canvas) EncodeDataURI() (string, error) {
	data, err := c.EncodePNG(1)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// SplitDataURI returns the MIME type and decoded payload of a base64 data URI.
func SplitDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 || mime == "" {
		return "", nil, ErrNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data uri: %w", err)
	}
	return mime, data, nil
}

// DecodeDataURI loads an image data URI into the canvas, resampling with nearest neighbour.
// Transparent pixels become empty cells.
func (c *Canvas) DecodeDataURI(uri string) error {
	_, data, err := SplitDataURI(uri)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	c.Load(img)
	return nil
}

// Load replaces the canvas contents with img resampled to the grid.
func (c *Canvas) Load(img image.Image) {
	b := img.Bounds()
	if b.Empty() {
		c.Clear()
		return
	}
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			sx := b.Min.X + x*b.Dx()/c.w
			sy := b.Min.Y + y*b.Dy()/c.h
			rgba := color.RGBAModel.Convert(img.At(sx, sy)).(color.RGBA)
			if rgba.A < 0x80 {
				rgba = color.RGBA{}
			} else {
				rgba.A = 0xff
			}
			c.cells[y*c.w+x] = rgba
		}
	}
	c.last = nil
}

// KV is the key-value storage the doodle is persisted to.
type KV interface {
	GetKV(ctx context.Context, key string) (string, bool, error)
	PutKV(ctx context.Context, key, value string) error
	DeleteKV(ctx context.Context, key string) error
}

// Save stores the doodle and the brush colour. An empty canvas removes the stored doodle.
func (c *Canvas) Save(ctx context.Context, kv KV) error {
	if err := kv.PutKV(ctx, ColorKey, c.Color()); err != nil {
		return err
	}
	if c.Empty() {
		return kv.DeleteKV(ctx, DoodleKey)
	}
	uri, err := c.EncodeDataURI()
	if err != nil {
		return err
	}
	return kv.PutKV(ctx, DoodleKey, uri)
}

// Restore loads a previously saved doodle and colour. Missing values leave the canvas as is.
func (c *Canvas) Restore(ctx context.Context, kv KV) error {
	if hex, ok, err := kv.GetKV(ctx, ColorKey); err != nil {
		return err
	} else if ok {
		if err := c.SetColor(hex); err != nil {
			return err
		}
	}
	uri, ok, err := kv.GetKV(ctx, DoodleKey)
	if err != nil || !ok {
		return err
	}
	return c.DecodeDataURI(uri)
}
