package ffmpeg

import (
	"encoding/binary"
	"fmt"
	"os/exec"
	"strings"
)

// DecodeRate is the sample rate used for analysis decodes. Mono 8 kHz is
// plenty for envelope correlation and keeps decoded buffers small.
const DecodeRate = 8000

// DecodeSamples decodes the given file (optionally a sub-range) to mono
// signed 16-bit PCM at DecodeRate and returns the samples as float64 in
// [-1, 1]. A durationSec of 0 decodes to the end of the file.
func DecodeSamples(ffmpegPath, filePath string, startSec, durationSec float64) ([]float64, error) {
	args := []string{"-hide_banner", "-v", "error"}
	if startSec > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", startSec))
	}
	if durationSec > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", durationSec))
	}
	args = append(args,
		"-i", filePath,
		"-vn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", DecodeRate),
		"-f", "s16le",
		"-",
	)

	cmd := exec.Command(ffmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	raw, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w (%s)", filePath, err, lastLines(stderr.String(), 5))
	}

	samples := make([]float64, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float64(v) / 32768.0
	}
	return samples, nil
}

// CutClip copies the given time range of srcPath into dstPath without
// re-encoding. Used to turn a designated broadcast range into a master clip.
func CutClip(ffmpegPath, srcPath, dstPath string, startSec, endSec float64) error {
	if endSec <= startSec {
		return fmt.Errorf("invalid clip range %.1f..%.1f", startSec, endSec)
	}
	args := []string{
		"-hide_banner", "-v", "error",
		"-ss", fmt.Sprintf("%.3f", startSec),
		"-t", fmt.Sprintf("%.3f", endSec-startSec),
		"-i", srcPath,
		"-vn",
		"-acodec", "copy",
		"-y", dstPath,
	}
	cmd := exec.Command(ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg cut %s: %w (%s)", srcPath, err, lastLines(string(output), 5))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
