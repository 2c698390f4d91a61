package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"print-area-pricing/colors"
	"print-area-pricing/logger"
)

// Image source schemes
const (
	driveScheme = "drive://"
	dataScheme  = "data:"
)

// Limits of a single image
const (
	DefaultMaxImageBytes  = 32 << 20
	DefaultMaxImagePixels = 36_000_000
)

var (
	// ErrUnsupportedSource is returned for image sources no fetcher handles or may fetch
	ErrUnsupportedSource = errors.New("unsupported image source")
	// ErrImageTooLarge is returned for images declaring more pixels than allowed
	ErrImageTooLarge = errors.New("image too large")
)

// ImageSourceConfig configures an ImageSource
type ImageSourceConfig struct {
	HTTPClient *http.Client
	Timeout    time.Duration // used when HTTPClient is nil
	BaseURL    string        // resolves relative sources such as /uploads/a.png
	// AllowedHosts lists the hosts absolute URLs may point to, as "host" or "host:port".
	// The BaseURL host is always allowed; any other host is rejected.
	AllowedHosts []string
	MaxBytes     int64
	MaxPixels    int64 // checked against the declared dimensions before decoding
}

// ImageSource resolves editor image sources to decoded images. It handles data URIs,
// http(s) URLs and drive://<fileID> references, with an optional disk cache in front
// of the remote ones.
type ImageSource struct {
	httpClient   *http.Client
	baseURL      string
	allowedHosts map[string]bool
	maxBytes     int64
	maxPixels    int64
	drive        DriveServiceInterface
	cache        *ImageCache
	log          *zap.Logger
}

// Ensure ImageSource implements colors.ImageLoader
var _ colors.ImageLoader = (*ImageSource)(nil)

// NewImageSource creates an ImageSource. drive and cache may be nil.
func NewImageSource(cfg ImageSourceConfig, drive DriveServiceInterface, cache *ImageCache, log *zap.Logger) *ImageSource {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	maxPixels := cfg.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}

	s := &ImageSource{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		allowedHosts: make(map[string]bool),
		maxBytes:     maxBytes,
		maxPixels:    maxPixels,
		drive:        drive,
		cache:        cache,
		log:          logger.OrNop(log),
	}
	for _, host := range cfg.AllowedHosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			s.allowedHosts[host] = true
		}
	}
	if base, err := url.Parse(s.baseURL); err == nil && base.Host != "" {
		s.allowedHosts[strings.ToLower(base.Host)] = true
	}

	// redirects must stay on allowed hosts too
	guarded := *client
	guarded.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		if !s.hostAllowed(req.URL) {
			return fmt.Errorf("%w: redirect to host %q", ErrUnsupportedSource, req.URL.Host)
		}
		return nil
	}
	s.httpClient = &guarded
	return s
}

// LoadImage fetches and decodes src, applying EXIF orientation
func (s *ImageSource) LoadImage(ctx context.Context, src string) (image.Image, error) {
	data, err := s.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > s.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, s.maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Fetch returns the raw bytes of src
func (s *ImageSource) Fetch(ctx context.Context, src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil, fmt.Errorf("%w: empty source", ErrUnsupportedSource)
	case strings.HasPrefix(src, dataScheme):
		return decodeDataURI(src)
	}

	fullURL := ""
	if !strings.HasPrefix(src, driveScheme) {
		// resolved before the cache so a narrowed host list also hides cached entries
		var err error
		if fullURL, err = s.resolveURL(src); err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if data, ok := s.cache.Get(src); ok {
			return data, nil
		}
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(src, driveScheme):
		data, err = s.fetchDrive(ctx, strings.TrimPrefix(src, driveScheme))
	default:
		data, err = s.fetchHTTP(ctx, fullURL)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(src, data); err != nil {
			s.log.Warn("failed to cache image", zap.Error(err))
		}
	}
	return data, nil
}

func (s *ImageSource) fetchDrive(ctx context.Context, fileID string) ([]byte, error) {
	if s.drive == nil {
		return nil, fmt.Errorf("%w: drive is not configured", ErrUnsupportedSource)
	}
	return s.drive.DownloadFile(ctx, fileID)
}

func (s *ImageSource) fetchHTTP(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", s.maxBytes)
	}
	return data, nil
}

// resolveURL accepts absolute http(s) URLs on allowed hosts, and paths relative to the
// base URL
func (s *ImageSource) resolveURL(src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	switch u.Scheme {
	case "http", "https":
		if !s.hostAllowed(u) {
			return "", fmt.Errorf("%w: host %q is not allowed", ErrUnsupportedSource, u.Host)
		}
		return src, nil
	case "":
		if s.baseURL == "" || !strings.HasPrefix(src, "/") || strings.HasPrefix(src, "//") {
			return "", fmt.Errorf("%w: relative source without base URL", ErrUnsupportedSource)
		}
		return s.baseURL + src, nil
	}
	return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
}

func (s *ImageSource) hostAllowed(u *url.URL) bool {
	return s.allowedHosts[strings.ToLower(u.Host)] || s.allowedHosts[strings.ToLower(u.Hostname())]
}

// decodeDataURI decodes data:[<mediatype>][;base64],<data>
func decodeDataURI(src string) ([]byte, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, fmt.Errorf("invalid data URI: missing ','")
	}
	meta, payload := src[len(dataScheme):comma], src[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid data URI: %w", err)
		}
		return []byte(unescaped), nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some encoders drop the padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("invalid data URI: %w", err)
		}
	}
	return data, nil
}
