package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"

	"golang.org/x/image/font/opentype"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"pricebot/internal/market"
)

// Fonts are the two typefaces used on images.
type Fonts struct {
	Bold    *opentype.Font
	Regular *opentype.Font
}

// FontSource provides parsed fonts.
type FontSource interface {
	LoadFonts() (*Fonts, error)
}

// FileFonts reads TrueType/OpenType files from disk on every load, so fonts
// added or removed while the bot runs take effect on the next image.
type FileFonts struct {
	BoldPath    string
	RegularPath string
}

func (f FileFonts) LoadFonts() (*Fonts, error) {
	bold, err := parseFontFile(f.BoldPath)
	if err != nil {
		return nil, err
	}
	regular, err := parseFontFile(f.RegularPath)
	if err != nil {
		return nil, err
	}
	return &Fonts{Bold: bold, Regular: regular}, nil
}

func parseFontFile(path string) (*opentype.Font, error) {
	if path == "" {
		return nil, fmt.Errorf("font path not configured")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// LogoSource downloads and decodes coin logos.
type LogoSource interface {
	Logo(ctx context.Context, url string) (image.Image, error)
}

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPLogoSource fetches logos over HTTP. PNG, JPEG, GIF and WebP are decoded.
type HTTPLogoSource struct {
	Client HTTPClient
	// MaxBytes caps the downloaded body. Defaults to 2 MiB.
	MaxBytes int64
}

func (h HTTPLogoSource) Logo(ctx context.Context, url string) (image.Image, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	limit := h.MaxBytes
	if limit <= 0 {
		limit = 2 << 20
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating logo request: %w", err)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching logo: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching logo: unexpected status code: %d", res.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(res.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("decoding logo: %w", err)
	}
	return img, nil
}

// HistorySource provides the price series drawn on images.
type HistorySource interface {
	History(ctx context.Context, id market.CoinID) ([]market.PricePoint, error)
}

// inputs are the per-render downloads an image needs.
type inputs struct {
	logo    image.Image
	history []market.PricePoint
}

// placeholderLogo stands in for coins without a logo URL.
func placeholderLogo() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	fill(img, img.Bounds(), color.RGBA{30, 30, 30, 255})
	return img
}

// gather downloads the logo and the price history concurrently.
func (r *Renderer) gather(ctx context.Context, s market.Snapshot) (inputs, error) {
	var in inputs
	if r.history == nil {
		return in, fmt.Errorf("no history source configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(safely(func() error {
		if s.LogoURL == "" || r.logos == nil {
			in.logo = placeholderLogo()
			return nil
		}
		logo, err := r.logos.Logo(gctx, s.LogoURL)
		if err != nil {
			return err
		}
		in.logo = logo
		return nil
	}))
	g.Go(safely(func() error {
		points, err := r.history.History(gctx, s.ID)
		if err != nil {
			return fmt.Errorf("price history: %w", err)
		}
		if len(points) < 2 {
			return fmt.Errorf("price history: %d points", len(points))
		}
		in.history = points
		return nil
	}))
	if err := g.Wait(); err != nil {
		return inputs{}, err
	}
	return in, nil
}

// safely converts a panic in fn into an error so it cannot escape its goroutine.
func safely(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		return fn()
	}
}
