// Package render turns market snapshots into chat replies: a plain-text
// message or a PNG price card / price chart.
//
// Image rendering never fails from the caller's point of view. Any problem
// while composing an image (missing or corrupt fonts, logo download errors,
// missing history, encoder errors, panics in drawing code) is logged and the
// text message is returned instead.
package render

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"pricebot/internal/market"
)

// Mode selects the reply format.
type Mode int

const (
	ModeText Mode = iota
	// ModeCard is the logo + stats + chart card.
	ModeCard
	// ModeChart is the plain price chart.
	ModeChart
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeCard:
		return "card"
	case ModeChart:
		return "chart"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "text":
		return ModeText, nil
	case "card", "image":
		return ModeCard, nil
	case "chart":
		return ModeChart, nil
	}
	return ModeText, fmt.Errorf("unknown render mode %q", s)
}

// Kind tags the payload of a Response.
type Kind int

const (
	KindText Kind = iota
	KindImage
)

// Response is either a text or a PNG payload, never both.
type Response struct {
	Kind  Kind
	Text  string
	Image []byte
}

func TextResponse(text string) Response { return Response{Kind: KindText, Text: text} }

func ImageResponse(png []byte) Response { return Response{Kind: KindImage, Image: png} }

// Options control image composition.
type Options struct {
	// Watermark is drawn at the bottom-right corner of images. Empty disables it.
	Watermark string
}

// Renderer builds responses. Its sources are consulted on every image render.
type Renderer struct {
	opts    Options
	fonts   FontSource
	logos   LogoSource
	history HistorySource
	log     logrus.FieldLogger
}

func New(opts Options, fonts FontSource, logos LogoSource, history HistorySource, log logrus.FieldLogger) *Renderer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Renderer{opts: opts, fonts: fonts, logos: logos, history: history, log: log}
}

// Render returns the reply for s in the requested mode, degrading image modes
// to text on any composition failure.
func (r *Renderer) Render(ctx context.Context, s market.Snapshot, mode Mode) Response {
	if mode != ModeCard && mode != ModeChart {
		return TextResponse(FormatText(s))
	}
	png, err := r.compose(ctx, s, mode)
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{"coin_id": s.ID, "mode": mode.String()}).
			Warn("image rendering failed, falling back to text")
		return TextResponse(FormatText(s))
	}
	return ImageResponse(png)
}

func (r *Renderer) compose(ctx context.Context, s market.Snapshot, mode Mode) (png []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			png, err = nil, fmt.Errorf("panic while composing %s image: %v", mode, rec)
		}
	}()

	if r.fonts == nil {
		return nil, fmt.Errorf("no font source configured")
	}
	fonts, err := r.fonts.LoadFonts()
	if err != nil {
		return nil, fmt.Errorf("loading fonts: %w", err)
	}

	in, err := r.gather(ctx, s)
	if err != nil {
		return nil, err
	}

	c, err := newCanvas(fonts, r.opts.Watermark)
	if err != nil {
		return nil, err
	}
	defer c.close()

	switch mode {
	case ModeCard:
		c.drawCard(s, in)
	default:
		c.drawChart(s, in)
	}
	return c.encode()
}
