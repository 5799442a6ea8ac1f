// Package decoder ships the default, swappable implementations of the
// two opaque helpers the iterator needs to turn a Media into something
// playable: does the source exist, and what argv plays it.
package decoder

import (
	"fmt"
	"os"
)

// FileValidator implements ports.SourceValidator against the local
// filesystem. An empty source is invalid; http:// and https:// URLs are
// treated as valid without being checked, on the theory that stream URLs
// are the decoder subprocess's problem to reject; any other source is
// valid only if it stats successfully.
type FileValidator struct{}

func (FileValidator) Validate(source string) bool {
	if source == "" {
		return false
	}
	if looksLikeURL(source) {
		return true
	}
	_, err := os.Stat(source)
	return err == nil
}

func looksLikeURL(s string) bool {
	return len(s) > 7 && (s[:7] == "http://" || (len(s) > 8 && s[:8] == "https://"))
}

// FFmpegCommandBuilder implements ports.CommandBuilder with a seek +
// duration argv shape, the same "seek_and_length" contract named in the
// spec's gen_source helper.
type FFmpegCommandBuilder struct{}

func (FFmpegCommandBuilder) Build(source string, seek, out, duration float64) []string {
	length := out - seek
	if length < 0 {
		length = 0
	}
	return []string{
		"-ss", fmt.Sprintf("%.3f", seek),
		"-i", source,
		"-t", fmt.Sprintf("%.3f", length),
	}
}
