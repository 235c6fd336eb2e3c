package normalizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// FFmpegConverter drives ffmpeg/ffprobe subprocesses for animated GIFs and
// short videos: audio stripped, 10fps sampling, animated WebP out.
type FFmpegConverter struct{}

// compile-time check: *FFmpegConverter must satisfy VideoConverter
var _ VideoConverter = (*FFmpegConverter)(nil)

func NewFFmpegConverter() *FFmpegConverter {
	return &FFmpegConverter{}
}

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStreams struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

func (c *FFmpegConverter) Duration(ctx context.Context, path string) (time.Duration, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration for %q failed: %w", path, err)
	}

	var probe probeFormat
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("ffprobe duration for %q: bad output: %w", path, err)
	}
	secs, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration for %q: bad value %q: %w", path, probe.Format.Duration, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func (c *FFmpegConverter) Dimensions(ctx context.Context, path string) (int, int, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe dimensions for %q failed: %w", path, err)
	}

	var probe probeStreams
	if err := json.Unmarshal(out, &probe); err != nil || len(probe.Streams) == 0 {
		return 0, 0, fmt.Errorf("ffprobe dimensions for %q: bad output", path)
	}
	return probe.Streams[0].Width, probe.Streams[0].Height, nil
}

func (c *FFmpegConverter) ToAnimatedWebP(ctx context.Context, path string, quality, width, height int) ([]byte, error) {
	outFile, err := os.CreateTemp("", "cdnup_out_*.webp")
	if err != nil {
		return nil, fmt.Errorf("could not create temp output file: %w", err)
	}
	_ = outFile.Close()
	defer func(name string) {
		if err := os.Remove(name); err != nil {
			log.Printf("failed to remove temp file %q: %v", name, err)
		}
	}(outFile.Name())

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", path,
		"-an",
		"-vf", fmt.Sprintf("fps=10,scale=%d:%d:flags=lanczos", width, height),
		"-loop", "0",
		"-quality", strconv.Itoa(quality),
		"-compression_level", "6",
		outFile.Name(),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg conversion of %q failed: %v: %s", path, err, stderr.String())
	}

	data, err := os.ReadFile(outFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read converted output: %w", err)
	}
	return data, nil
}
