// Package sdlpresenter shows frames in an SDL2 window.
//
// SDL requires video calls to come from the thread that initialized it;
// programs using this package lock the main goroutine to its OS thread.
package sdlpresenter

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

// Presenter implements ports.Presenter with a window, an accelerated
// renderer and a streaming IYUV texture of the frame size.
type Presenter struct {
	logger ports.Logger

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	rect     sdl.Rect
	inited   bool
}

// New creates a new Presenter. Nothing is created until Open.
func New(logger ports.Logger) *Presenter {
	return &Presenter{logger: logger}
}

// Open initializes SDL video and creates the window, renderer and texture.
// On failure everything created so far is released.
func (p *Presenter) Open(title string, size media.Size) (err error) {
	if p.inited {
		return fmt.Errorf("sdl: presenter already open")
	}
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("sdl: init: %w", err)
	}
	p.inited = true
	defer func() {
		if err != nil {
			p.Close()
		}
	}()

	w, h := int32(size.Width), int32(size.Height)
	p.window, err = sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("sdl: create window: %w", err)
	}

	p.renderer, err = sdl.CreateRenderer(p.window, -1, 0)
	if err != nil {
		return fmt.Errorf("sdl: create renderer: %w", err)
	}

	p.texture, err = p.renderer.CreateTexture(sdl.PIXELFORMAT_IYUV, sdl.TEXTUREACCESS_STREAMING, w, h)
	if err != nil {
		return fmt.Errorf("sdl: create texture: %w", err)
	}

	p.rect = sdl.Rect{X: 0, Y: 0, W: w, H: h}
	p.logger.Debug("SDL texture ready (%dx%d)", size.Width, size.Height)
	return nil
}

// Upload copies the three planes of a YUV420P frame into the texture,
// honoring each plane's stride.
func (p *Presenter) Upload(frame *media.Frame) error {
	if p.texture == nil {
		return fmt.Errorf("sdl: presenter not open")
	}
	if frame.Format != media.PixelFormatYUV420P {
		return fmt.Errorf("sdl: cannot upload %s frame", frame.Format)
	}
	y, u, v := frame.Planes[0], frame.Planes[1], frame.Planes[2]
	return p.texture.UpdateYUV(&p.rect, y.Data, y.Stride, u.Data, u.Stride, v.Data, v.Stride)
}

// Present draws the texture over the whole window.
func (p *Presenter) Present() error {
	if p.renderer == nil {
		return fmt.Errorf("sdl: presenter not open")
	}
	if err := p.renderer.Clear(); err != nil {
		return err
	}
	if err := p.renderer.Copy(p.texture, nil, nil); err != nil {
		return err
	}
	p.renderer.Present()
	return nil
}

// PollQuit drains pending events and reports whether one of them was a
// quit request. It never blocks.
func (p *Presenter) PollQuit() bool {
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			quit = true
		}
	}
	return quit
}

// Close destroys texture, renderer and window in that order and shuts
// SDL down. It is safe to call more than once.
func (p *Presenter) Close() error {
	if p.texture != nil {
		p.texture.Destroy()
		p.texture = nil
	}
	if p.renderer != nil {
		p.renderer.Destroy()
		p.renderer = nil
	}
	if p.window != nil {
		p.window.Destroy()
		p.window = nil
	}
	if p.inited {
		sdl.Quit()
		p.inited = false
	}
	return nil
}

var _ ports.Presenter = (*Presenter)(nil)
