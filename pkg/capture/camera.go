package capture

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/pion/mediadevices"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	mdframe "github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/rtedge/rtedge/pkg/frame"
	"github.com/rtedge/rtedge/pkg/logger"
)

type CameraConfig struct {
	Device string
	Width  int
	Height int
	Fps    float64
}

// Camera captures I420 frames from a video device.
type Camera struct {
	conf  CameraConfig
	log   *logger.Logger
	mu    sync.Mutex
	track *mediadevices.VideoTrack
}

func NewCamera(conf CameraConfig, log *logger.Logger) *Camera {
	return &Camera{conf: conf, log: log.Module("camera")}
}

func (c *Camera) open() (*mediadevices.VideoTrack, error) {
	stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Video: func(mc *mediadevices.MediaTrackConstraints) {
			mc.FrameFormat = prop.FrameFormat(mdframe.FormatI420)
			if c.conf.Device != "" {
				mc.DeviceID = prop.String(c.conf.Device)
			}
			if c.conf.Width > 0 && c.conf.Height > 0 {
				mc.Width = prop.Int(c.conf.Width)
				mc.Height = prop.Int(c.conf.Height)
			}
			if c.conf.Fps > 0 {
				mc.FrameRate = prop.Float(c.conf.Fps)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	tracks := stream.GetVideoTracks()
	if len(tracks) == 0 {
		return nil, ErrNoDevice
	}
	track, ok := tracks[0].(*mediadevices.VideoTrack)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected track %T", ErrNoDevice, tracks[0])
	}
	return track, nil
}

func (c *Camera) Start(ctx context.Context, onFrame func(*frame.Capture)) error {
	track, err := c.open()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.track = track
	c.mu.Unlock()
	c.log.Info().Str("track", track.ID()).Msg("Camera opened")

	// Read blocks, closing the track is the only way to interrupt it
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	flog := c.log.Sampled(1, 5*time.Second)
	r := track.NewReader(false)
	var f frame.Capture
	for {
		img, release, err := r.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("camera read: %w", err)
		}
		ycc, ok := img.(*image.YCbCr)
		if !ok || ycc.SubsampleRatio != image.YCbCrSubsampleRatio420 {
			release()
			flog.Warn().Msgf("Unsupported camera image %T", img)
			continue
		}
		FromYCbCr(&f, ycc, time.Now())
		onFrame(&f)
		release()
	}
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return nil
	}
	err := c.track.Close()
	c.track = nil
	return err
}
