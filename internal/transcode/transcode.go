// Package transcode defines the rendition-production contract and an
// ffmpeg-backed implementation of it.
package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"mediabin/internal/mediatype"
)

// Transcoder converts a stored original into one rendition format.
// Implementations must honor ctx cancellation; the worker applies the
// profile's advisory time budget through it.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, target mediatype.Format) error
}

// FFmpeg shells out to an ffmpeg binary for every rendition.
type FFmpeg struct {
	binary string
}

// NewFFmpeg returns a transcoder invoking the given binary.
func NewFFmpeg(binary string) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary}
}

// Transcode runs ffmpeg with arguments chosen per target format. Output is
// captured and folded into the error on failure.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string, target mediatype.Format) error {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", inputPath}
	args = append(args, argsForTarget(target)...)
	args = append(args, "-y", outputPath)

	cmd := exec.CommandContext(ctx, f.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("transcode to %s: %w", target.MIME, ctxErr)
		}
		return fmt.Errorf("transcode to %s: %w: %s", target.MIME, err, tail(output))
	}
	return nil
}

func argsForTarget(target mediatype.Format) []string {
	switch target.MIME {
	case "image/png":
		// Poster frame: first frame only.
		return []string{"-vframes", "1"}
	case "audio/mp3", "audio/ogg", "audio/oga":
		return []string{"-vn"}
	case "video/mp4":
		return []string{"-movflags", "+faststart", "-pix_fmt", "yuv420p"}
	default:
		return nil
	}
}

func tail(output []byte) string {
	text := strings.TrimSpace(string(output))
	const limit = 400
	if len(text) > limit {
		text = "..." + text[len(text)-limit:]
	}
	return text
}
