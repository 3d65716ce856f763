package rtc

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
)

// frameDuration is the chunk size streamed to the audio track. 20ms
// matches the default Opus frame size.
const frameDuration = 20 * time.Millisecond

// defaultSampleRate is the rate of the raw PCM the TTS engines produce
// (s16le mono, 24kHz).
const defaultSampleRate = 24000

// sampleProvider feeds queued PCM frames to a local sample track. It
// implements the SDK's SampleProvider interface.
//
// Shutdown is signalled on done rather than by closing the queue: a
// sender may be blocked in enqueue when Close runs, and a close of the
// queue under it would panic.
type sampleProvider struct {
	queue     chan media.Sample
	done      chan struct{}
	closeOnce sync.Once
}

func newSampleProvider() *sampleProvider {
	return &sampleProvider{
		queue: make(chan media.Sample, 256),
		done:  make(chan struct{}),
	}
}

func (p *sampleProvider) NextSample(ctx context.Context) (media.Sample, error) {
	select {
	case <-ctx.Done():
		return media.Sample{}, ctx.Err()
	case sample := <-p.queue:
		return sample, nil
	case <-p.done:
		// frames queued before Close still play out
		select {
		case sample := <-p.queue:
			return sample, nil
		default:
			return media.Sample{}, io.EOF
		}
	}
}

func (p *sampleProvider) OnBind() error   { return nil }
func (p *sampleProvider) OnUnbind() error { return nil }

func (p *sampleProvider) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// enqueue blocks while the track drains a full queue, so back-to-back
// syntheses stay ordered. Returns early when ctx is cancelled (interrupt)
// or the provider is closed (session teardown).
func (p *sampleProvider) enqueue(ctx context.Context, sample media.Sample) error {
	// cancellation and shutdown win over a queue with free capacity
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return io.ErrClosedPipe
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return io.ErrClosedPipe
	case p.queue <- sample:
		return nil
	}
}

// streamPCM reads raw s16le mono PCM and enqueues it in fixed-duration
// frames.
func (p *sampleProvider) streamPCM(ctx context.Context, r io.Reader, sampleRate int) error {
	// bytes per frame: rate * seconds * 2 bytes per sample
	frameBytes := sampleRate * int(frameDuration.Milliseconds()) / 1000 * 2
	buf := make([]byte, frameBytes)

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			frame := make([]byte, n)
			copy(frame, buf[:n])
			sample := media.Sample{
				Data:     frame,
				Duration: time.Duration(n/2) * time.Second / time.Duration(sampleRate),
			}
			if qErr := p.enqueue(ctx, sample); qErr != nil {
				return qErr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// wavInfo is the subset of a WAV header we care about.
type wavInfo struct {
	sampleRate int
	channels   int
}

// readWAVHeader consumes the 44-byte canonical WAV header and returns the
// stream parameters, leaving r positioned at the PCM data.
func readWAVHeader(r io.Reader) (wavInfo, error) {
	header := make([]byte, 44)
	if _, err := io.ReadFull(r, header); err != nil {
		return wavInfo{}, fmt.Errorf("short wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return wavInfo{}, fmt.Errorf("not a wav stream")
	}
	return wavInfo{
		sampleRate: int(binary.LittleEndian.Uint32(header[24:28])),
		channels:   int(binary.LittleEndian.Uint16(header[22:24])),
	}, nil
}
