package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/disintegration/gift"
	"github.com/google/uuid"
)

const (
	MaxUploadBytes = 5 << 20
	MaxSourceSide  = 10000
	MaxStoredSide  = 1024
	JPEGQuality    = 90
)

// ErrUnsupportedImage is returned for payloads that are not png, jpeg or gif images.
var ErrUnsupportedImage = errors.New("unsupported image")

var extensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
}

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// Uploader validates and normalizes uploaded pictures before saving them.
type Uploader struct {
	store Store
	now   func() time.Time
}

func NewUploader(store Store) *Uploader {
	return &Uploader{store: store, now: time.Now}
}

// StoreFile stores a multipart upload and returns its generated filename.
func (u *Uploader) StoreFile(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxUploadBytes {
		return "", fmt.Errorf("%w: file larger than %d bytes", ErrUnsupportedImage, MaxUploadBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return u.Store(ctx, f)
}

// Store decodes r, shrinks images larger than MaxStoredSide, saves the
// result under a fresh name and returns that name.
func (u *Uploader) Store(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("%w: file larger than %d bytes", ErrUnsupportedImage, MaxUploadBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	ext, ok := extensions[format]
	if !ok {
		return "", fmt.Errorf("%w: format %q", ErrUnsupportedImage, format)
	}
	if cfg.Width > MaxSourceSide || cfg.Height > MaxSourceSide {
		return "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, MaxSourceSide)
	}

	if cfg.Width > MaxStoredSide || cfg.Height > MaxStoredSide {
		data, err = shrink(data, format)
		if err != nil {
			return "", err
		}
	}

	name := u.newName(ext)
	if err := u.store.Save(ctx, name, contentTypes[format], bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return name, nil
}

func (u *Uploader) newName(ext string) string {
	return strconv.FormatInt(u.now().UnixNano(), 10) + "_" + uuid.NewString() + ext
}

func shrink(data []byte, format string) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	g := gift.New(gift.ResizeToFit(MaxStoredSide, MaxStoredSide, gift.LanczosResampling))
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality})
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
