// Package transcode invokes an external encoder to convert media assets to
// web-efficient formats. It mirrors the optimizer's executor pattern:
// skip-if-up-to-date, dry-run short-circuit, and a structured result per
// file. The encoder itself is a black box behind the built argument list.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Status is the outcome of one conversion attempt.
type Status string

const (
	StatusConverted Status = "Converted"
	StatusSkipped   Status = "Skipped"
	StatusFailed    Status = "Failed"
	StatusWhatIf    Status = "WhatIf"
)

// Profile describes one target format and the encoder arguments that
// produce it.
type Profile struct {
	Name      string
	OutExt    string
	InputExts []string
	Args      []string
}

// Profiles are the built-in conversion targets.
var Profiles = map[string]Profile{
	"webp": {
		Name:      "webp",
		OutExt:    ".webp",
		InputExts: []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff"},
		Args:      []string{"-c:v", "libwebp", "-quality", "80", "-compression_level", "6"},
	},
	"webm": {
		Name:      "webm",
		OutExt:    ".webm",
		InputExts: []string{".mp4", ".mov", ".avi", ".mkv", ".m4v"},
		Args:      []string{"-c:v", "libvpx-vp9", "-crf", "30", "-b:v", "0", "-an"},
	},
}

// ProfileFor returns the named profile.
func ProfileFor(name string) (Profile, error) {
	p, ok := Profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("unknown transcode profile %q", name)
	}
	return p, nil
}

// Result is the outcome of one Transcode call.
type Result struct {
	Source   string
	Dest     string
	Status   Status
	SrcBytes int64
	DstBytes int64
	Error    string
}

const (
	// MinThrottle is the smallest allowed worker count.
	MinThrottle = 1
	// MaxThrottle is the largest allowed worker count for transcode runs.
	// Encoder invocations are fire-and-wait with no deadline; a stuck
	// process stalls only its own worker slot.
	MaxThrottle = 64
)

// ValidateThrottle rejects worker counts outside the supported range.
func ValidateThrottle(n int) error {
	if n < MinThrottle || n > MaxThrottle {
		return fmt.Errorf("throttle limit %d outside supported range %d-%d", n, MinThrottle, MaxThrottle)
	}
	return nil
}

// Transcoder runs encoder invocations.
type Transcoder struct {
	Binary string // encoder binary, "ffmpeg" by default
	Force  bool
	DryRun bool
}

// New creates a Transcoder using the default encoder binary.
func New(force, dryRun bool) *Transcoder {
	return &Transcoder{Binary: "ffmpeg", Force: force, DryRun: dryRun}
}

// BuildArgs constructs the complete encoder argument slice for one file.
func (t *Transcoder) BuildArgs(src, dest string, profile Profile) []string {
	args := make([]string, 0, len(profile.Args)+8)
	args = append(args, "-hide_banner", "-nostdin", "-y", "-loglevel", "error", "-i", src)
	args = append(args, profile.Args...)
	args = append(args, dest)
	return args
}

// Transcode converts one file. The destination is skipped when it already
// exists and is at least as new as the source, unless force is set.
func (t *Transcoder) Transcode(ctx context.Context, src, dest string, profile Profile) Result {
	res := Result{Source: src, Dest: dest}

	srcInfo, err := os.Stat(src)
	if err != nil {
		res.Status = StatusFailed
		res.Error = fmt.Sprintf("cannot access source: %v", err)
		return res
	}
	res.SrcBytes = srcInfo.Size()

	if !t.Force {
		if destInfo, err := os.Stat(dest); err == nil && !destInfo.ModTime().Before(srcInfo.ModTime()) {
			res.Status = StatusSkipped
			res.DstBytes = destInfo.Size()
			res.Error = "destination is up to date"
			return res
		}
	}

	if t.DryRun {
		res.Status = StatusWhatIf
		return res
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		return res
	}

	cmd := exec.CommandContext(ctx, t.Binary, t.BuildArgs(src, dest, profile)...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		res.Status = StatusFailed
		res.Error = encoderError(err, stderrBuf.String())
		return res
	}

	destInfo, err := os.Stat(dest)
	if err != nil {
		res.Status = StatusFailed
		res.Error = fmt.Sprintf("encoder produced no output: %v", err)
		return res
	}

	res.Status = StatusConverted
	res.DstBytes = destInfo.Size()
	return res
}

// DestPath derives the output path for src: same relative location (under
// outputRoot when set, next to the source otherwise) with the profile's
// extension.
func DestPath(root, outputRoot, src string, profile Profile) (string, error) {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + profile.OutExt

	if outputRoot == "" {
		return filepath.Join(filepath.Dir(src), base), nil
	}

	rel, err := filepath.Rel(root, src)
	if err != nil {
		return "", err
	}

	return filepath.Join(outputRoot, filepath.Dir(rel), base), nil
}

// RunBatch converts files on a bounded worker pool. Every worker captures
// its own per-file failures as Failed results; one stuck or failing file
// never aborts the batch. Results arrive in completion order.
func (t *Transcoder) RunBatch(ctx context.Context, root, outputRoot string, files []string, profile Profile, throttle int) []Result {
	if len(files) == 0 {
		return nil
	}

	if throttle < MinThrottle {
		throttle = MinThrottle
	}
	if throttle > MaxThrottle {
		throttle = MaxThrottle
	}

	work := make(chan string, throttle)
	results := make(chan Result, len(files))

	var wg sync.WaitGroup
	for i := 0; i < throttle; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range work {
				dest, err := DestPath(root, outputRoot, src, profile)
				if err != nil {
					results <- Result{Source: src, Status: StatusFailed, Error: err.Error()}
					continue
				}
				results <- t.Transcode(ctx, src, dest, profile)
			}
		}()
	}

	for _, src := range files {
		work <- src
	}
	close(work)
	wg.Wait()
	close(results)

	out := make([]Result, 0, len(files))
	for res := range results {
		out = append(out, res)
	}

	return out
}

// encoderError folds the tail of stderr into the error message.
func encoderError(err error, stderr string) string {
	tail := strings.TrimSpace(stderr)
	if len(tail) > 300 {
		tail = tail[len(tail)-300:]
	}
	if tail == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v: %s", err, tail)
}
