package ffmpeg

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

type FFprobe struct{ Path string }

type ProbeResult struct {
	Format  FormatInfo   `json:"format"`
	Streams []StreamInfo `json:"streams"`
}

type FormatInfo struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	Bitrate  string `json:"bit_rate"`
}

type StreamInfo struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout"`
}

func NewFFprobe(path string) *FFprobe { return &FFprobe{Path: path} }

func (f *FFprobe) Probe(filePath string) (*ProbeResult, error) {
	cmd := exec.Command(f.Path, "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", filePath)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &result, nil
}

func (r *ProbeResult) GetDurationSeconds() int {
	duration, _ := strconv.ParseFloat(r.Format.Duration, 64)
	return int(duration)
}

func (r *ProbeResult) GetAudioCodec() string {
	for _, s := range r.Streams {
		if s.CodecType == "audio" {
			return s.CodecName
		}
	}
	return ""
}

