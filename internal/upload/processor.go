package upload

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// Optimization bounds and public URL prefix for stored images.
const (
	MaxWidth  = 2560
	MaxHeight = 1440
	URLPrefix = "/uploads"
)

// Validation errors mapped to 415/413 by the upload handler.
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file exceeds maximum upload size")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Result describes a stored image.
type Result struct {
	FileName string
	FilePath string // relative path recorded in the media table
	URL      string
	Width    int
	Height   int
}

// Processor validates, stores and optimizes image uploads in a local
// directory.
type Processor struct {
	dir      string
	maxBytes int64
	logger   *logrus.Entry
}

// NewProcessor creates the upload directory if needed and returns a
// processor writing into it.
func NewProcessor(dir string, maxBytes int64) (*Processor, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Processor{
		dir:      dir,
		maxBytes: maxBytes,
		logger:   logrus.WithField("component", "upload"),
	}, nil
}

// Dir returns the upload directory path.
func (p *Processor) Dir() string {
	return p.dir
}

// Process validates the uploaded file, writes it to the upload directory
// under a collision-free name and optimizes it in place. Optimization
// failure is not fatal: the original file is served unmodified.
func (p *Processor) Process(fh *multipart.FileHeader) (*Result, error) {
	contentType := fh.Header.Get("Content-Type")
	if !allowedTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if fh.Size > p.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, fh.Size)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("optimized-image-%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	dst := filepath.Join(p.dir, name)

	if err := saveFile(fh, dst); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	width, height, err := p.optimize(dst)
	if err != nil {
		// Degrade gracefully: keep the unoptimized original.
		p.logger.WithError(err).WithField("file", name).Warn("Image optimization failed, serving original")
		width, height = dimensions(dst)
	}

	return &Result{
		FileName: name,
		FilePath: path.Join("uploads", name),
		URL:      URLPrefix + "/" + name,
		Width:    width,
		Height:   height,
	}, nil
}

func saveFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// optimize decodes the stored file, resizes it to fit within the bounding
// box without upscaling and re-encodes it as PNG with an alpha channel.
// The original is replaced via temp-write, delete, rename so readers never
// observe a partially written image.
func (p *Processor) optimize(fullPath string) (int, int, error) {
	src, err := imaging.Open(fullPath, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > MaxWidth || bounds.Dy() > MaxHeight {
		src = imaging.Fit(src, MaxWidth, MaxHeight, imaging.Lanczos)
	}

	// Clone yields NRGBA, forcing an alpha channel on the output.
	img := imaging.Clone(src)

	tmp := fullPath + ".opt"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(tmp)
		return 0, 0, fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return 0, 0, err
	}

	if err := os.Remove(fullPath); err != nil {
		os.Remove(tmp)
		return 0, 0, err
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		return 0, 0, err
	}

	final := img.Bounds()
	return final.Dx(), final.Dy(), nil
}

// dimensions best-effort reads image dimensions for the fallback path.
func dimensions(fullPath string) (int, int) {
	f, err := os.Open(fullPath)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
