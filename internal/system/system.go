// Package system probes the host: worker sizing from CPU and memory, and the
// H.264 encoders the local ffmpeg build offers.
package system

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Each in-flight frame holds the frame buffer, a transform scratch buffer and
// the PNG encoder state.
const buffersPerWorker = 3

// memoryShare is the fraction of available memory frame workers may claim.
const memoryShare = 0.5

// RecommendedWorkers sizes the frame worker pool for frames of width x height.
// It uses logical CPUs, capped so that in-flight buffers stay within half of
// the available memory. The result is at least 1.
func RecommendedWorkers(ctx context.Context, width, height int) int {
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cpus <= 0 {
		cpus = runtime.NumCPU()
	}

	var available uint64
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		available = vm.Available
	}

	return workersFor(cpus, available, uint64(width)*uint64(height)*4)
}

func workersFor(cpus int, availableBytes, frameBytes uint64) int {
	workers := cpus
	if availableBytes > 0 && frameBytes > 0 {
		budget := uint64(float64(availableBytes) * memoryShare)
		byMemory := int(budget / (frameBytes * buffersPerWorker))
		if byMemory < workers {
			workers = byMemory
		}
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// hardwareEncoders in order of preference. libx264 is the fallback.
var hardwareEncoders = []string{"h264_videotoolbox", "h264_nvenc"}

// DefaultEncoder is the software H.264 encoder every ffmpeg build ships.
const DefaultEncoder = "libx264"

// DetectH264Encoder asks ffmpeg for its encoder list and returns the preferred
// H.264 encoder it offers.
func DetectH264Encoder(ctx context.Context, ffmpegPath string) string {
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return DefaultEncoder
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	available := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// " V....D libx264   libx264 H.264 ..." : flags then name
		if len(fields) >= 2 && strings.HasPrefix(fields[0], "V") {
			available[fields[1]] = true
		}
	}
	for _, name := range hardwareEncoders {
		if available[name] {
			return name
		}
	}
	return DefaultEncoder
}

// FFmpegVersion returns the first line of `ffmpeg -version`.
func FFmpegVersion(ctx context.Context, ffmpegPath string) (string, error) {
	path, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found: %w", err)
	}
	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg -version: %w", err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// FilterSupported reports whether the local ffmpeg build has the named filter.
// drawtext, for one, is missing from builds without libfreetype.
func FilterSupported(ctx context.Context, ffmpegPath, name string) bool {
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-filters").CombinedOutput()
	if err != nil {
		return false
	}
	return hasFilter(string(out), name)
}

func hasFilter(listing, name string) bool {
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		// " T.C drawtext          V->V       Draw text on top of video frames"
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
