// Package h264decoder decodes H.264 Annex B streams with an ffmpeg child
// process. Packets are written to ffmpeg's stdin and raw yuv420p frames are
// read back from its stdout.
package h264decoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/user/framegrab/pkg/adapters/ffmpegbin"
	logadapter "github.com/user/framegrab/pkg/adapters/logger"
	"github.com/user/framegrab/pkg/media"
	"github.com/user/framegrab/pkg/ports"
)

var (
	// ErrNotInitialized is returned when decoder methods are called after Close.
	ErrNotInitialized = errors.New("h264decoder: decoder not initialized")

	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = ffmpegbin.ErrFFmpegNotFound
)

// Options configures the decoder.
type Options struct {
	// FFmpegPath overrides ffmpeg discovery.
	FFmpegPath string
	Logger     ports.Logger
}

// IsAvailable reports whether an ffmpeg executable can be found.
func IsAvailable(ffmpegPath string) bool {
	return ffmpegbin.IsAvailable(ffmpegPath)
}

// Decoder implements ports.FrameDecoder. Frames are produced asynchronously:
// ReceiveFrame never blocks before Flush, it returns what ffmpeg has
// delivered so far.
type Decoder struct {
	size   media.Size
	logger ports.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *syncBuffer

	mu       sync.Mutex
	ready    []*media.Frame
	free     []*media.Frame
	readErr  error
	produced int
	done     chan struct{}

	current *media.Frame
	flushed bool
	closed  bool
}

// New starts an ffmpeg process decoding a stream of the given descriptor.
func New(desc media.StreamDescriptor, opts Options) (*Decoder, error) {
	if desc.Codec != media.CodecH264 {
		return nil, fmt.Errorf("%w: %s", media.ErrUnsupportedCodec, desc.Codec)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid stream size %dx%d", media.ErrOpenCodec, desc.Width, desc.Height)
	}

	ffmpegPath, err := ffmpegbin.Find(opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", media.ErrOpenCodec, err)
	}

	var logger ports.Logger = logadapter.NewNoop()
	if opts.Logger != nil {
		logger = opts.Logger
	}

	d := &Decoder{
		size:   desc.Size(),
		logger: logger,
		stderr: &syncBuffer{},
		done:   make(chan struct{}),
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-probesize", "32768",
		"-analyzeduration", "0",
		"-fflags", "nobuffer",
		"-f", "h264",
		"-i", "pipe:0",
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"-s", d.size.String(),
		"pipe:1",
	}
	d.cmd = exec.Command(ffmpegPath, args...)
	d.cmd.Stderr = d.stderr

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", media.ErrOpenCodec, err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", media.ErrOpenCodec, err)
	}
	d.stdin = stdin

	d.logger.Debug("Starting ffmpeg: %s", strings.Join(d.cmd.Args, " "))
	if err := d.cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", media.ErrOpenCodec, err)
	}

	go d.readFrames(stdout)
	return d, nil
}

// readFrames reads whole frames from ffmpeg until its output ends.
// It never waits for the consumer, so ffmpeg can always make progress.
func (d *Decoder) readFrames(stdout io.Reader) {
	defer close(d.done)
	for {
		frame := d.takeFree()
		for i := range frame.Planes {
			if _, err := io.ReadFull(stdout, frame.Planes[i].Data); err != nil {
				if errors.Is(err, io.EOF) && i == 0 {
					err = nil
				}
				d.mu.Lock()
				d.readErr = err
				d.mu.Unlock()
				return
			}
		}
		d.mu.Lock()
		d.ready = append(d.ready, frame)
		d.produced++
		d.mu.Unlock()
	}
}

func (d *Decoder) takeFree() *media.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := len(d.free); n > 0 {
		frame := d.free[n-1]
		d.free = d.free[:n-1]
		return frame
	}
	return newPackedFrame(d.size)
}

// newPackedFrame allocates a frame laid out like ffmpeg's rawvideo output:
// planes without row padding.
func newPackedFrame(size media.Size) *media.Frame {
	f := &media.Frame{
		Format: media.PixelFormatYUV420P,
		Width:  size.Width,
		Height: size.Height,
		Planes: make([]media.Plane, 3),
	}
	for i := range f.Planes {
		ps := media.PixelFormatYUV420P.PlaneSize(i, size)
		f.Planes[i] = media.Plane{Data: make([]byte, ps.Width*ps.Height), Stride: ps.Width}
	}
	return f
}

// SendPacket writes one Annex B access unit to ffmpeg.
func (d *Decoder) SendPacket(pkt *media.Packet) error {
	if d.closed {
		return ErrNotInitialized
	}
	if d.flushed {
		return errors.New("h264decoder: packet sent after flush")
	}
	if len(pkt.Data) == 0 {
		return fmt.Errorf("%w: empty packet", media.ErrDecode)
	}
	if _, err := d.stdin.Write(pkt.Data); err != nil {
		return fmt.Errorf("write to ffmpeg: %w%s", err, d.stderrTail())
	}
	return nil
}

// ReceiveFrame returns the oldest frame ffmpeg has delivered. The previous
// frame is recycled.
func (d *Decoder) ReceiveFrame() (*media.Frame, error) {
	if d.closed {
		return nil, ErrNotInitialized
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil {
		d.free = append(d.free, d.current)
		d.current = nil
	}
	if len(d.ready) == 0 {
		if !d.flushed {
			return nil, media.ErrNoFrame
		}
		if d.readErr != nil {
			err := d.readErr
			d.readErr = nil
			return nil, fmt.Errorf("%w: read from ffmpeg: %v", media.ErrDecode, err)
		}
		return nil, io.EOF
	}

	d.current = d.ready[0]
	d.ready = d.ready[1:]
	return d.current, nil
}

// Flush closes ffmpeg's input and waits for it to deliver every buffered
// frame.
func (d *Decoder) Flush() error {
	if d.closed {
		return ErrNotInitialized
	}
	if d.flushed {
		return nil
	}
	d.flushed = true

	d.stdin.Close()
	<-d.done
	if err := d.cmd.Wait(); err != nil {
		d.logger.Debug("ffmpeg exited: %s", fmt.Sprintf("%v%s", err, d.stderrTail()))
	}

	d.mu.Lock()
	d.logger.Debug("Decoder produced %d frames", d.produced)
	d.mu.Unlock()
	return nil
}

// Close stops ffmpeg if it is still running and releases the frame buffers.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	if !d.flushed {
		d.stdin.Close()
		if d.cmd.Process != nil {
			d.cmd.Process.Kill()
		}
		<-d.done
		d.cmd.Wait()
	}

	d.mu.Lock()
	d.ready, d.free, d.current = nil, nil, nil
	d.mu.Unlock()
	return nil
}

func (d *Decoder) stderrTail() string {
	msg := strings.TrimSpace(d.stderr.String())
	if msg == "" {
		return ""
	}
	if len(msg) > 512 {
		msg = msg[len(msg)-512:]
	}
	return "\nstderr: " + msg
}

// syncBuffer collects ffmpeg's stderr while it is being written.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ ports.FrameDecoder = (*Decoder)(nil)
