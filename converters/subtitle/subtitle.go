// Package subtitle registers converters between SubRip (.srt) and
// WebVTT (.vtt) subtitle documents. Both formats are simple line-based
// cue lists with a timing line and one or more text lines; no pack
// library parses either, so this package is hand-rolled against the two
// formats' public grammars (justified in SPEC_FULL.md §11.4).
package subtitle

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carlodf/morphetl/converter"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
)

// RegisterAll registers every subtitle converter with r.
func RegisterAll(r interface {
	MustRegister(c converter.Converter)
}) {
	r.MustRegister(newSRTToVTT())
	r.MustRegister(newVTTToSRT())
}

// cue is one subtitle entry: a time range and its text lines.
type cue struct {
	start, end time.Duration
	lines      []string
}

type srtToVTT struct{ decl converter.ConverterDecl }

func newSRTToVTT() *srtToVTT {
	decl := converter.Simple(
		"subtitle.srt-to-vtt",
		pattern.New().EqStr("format", "srt"),
		pattern.New().EqStr("format", "vtt"),
	).WithDescription("SubRip to WebVTT")
	return &srtToVTT{decl: decl}
}

func (c *srtToVTT) Decl() converter.ConverterDecl { return c.decl }

func (c *srtToVTT) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	cues, err := parseSRT(data)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput("parsing srt", err)
	}
	out := renderVTT(cues)
	outProps := p.With("format", value.String("vtt"))
	return converter.Single(out, outProps), nil
}

type vttToSRT struct{ decl converter.ConverterDecl }

func newVTTToSRT() *vttToSRT {
	decl := converter.Simple(
		"subtitle.vtt-to-srt",
		pattern.New().EqStr("format", "vtt"),
		pattern.New().EqStr("format", "srt"),
	).WithDescription("WebVTT to SubRip")
	return &vttToSRT{decl: decl}
}

func (c *vttToSRT) Decl() converter.ConverterDecl { return c.decl }

func (c *vttToSRT) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	cues, err := parseVTT(data)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput("parsing vtt", err)
	}
	out := renderSRT(cues)
	outProps := p.With("format", value.String("srt"))
	return converter.Single(out, outProps), nil
}

// parseSRT parses a SubRip document: blocks of [index line] [timing
// line] [one or more text lines] separated by a blank line. The index
// line is optional and, when present, ignored — cues are renumbered on
// output.
func parseSRT(data []byte) ([]cue, error) {
	var cues []cue
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	i := 0
	for i < len(lines) {
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i >= len(lines) {
			break
		}
		if _, err := strconv.Atoi(strings.TrimSpace(lines[i])); err == nil {
			i++
		}
		if i >= len(lines) {
			return nil, fmt.Errorf("truncated cue: missing timing line")
		}
		start, end, err := parseSRTTiming(lines[i])
		if err != nil {
			return nil, err
		}
		i++
		var text []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			text = append(text, lines[i])
			i++
		}
		cues = append(cues, cue{start: start, end: end, lines: text})
	}
	return cues, nil
}

// parseSRTTiming parses "00:00:01,000 --> 00:00:04,000".
func parseSRTTiming(line string) (time.Duration, time.Duration, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed timing line: %q", line)
	}
	start, err := parseTimestamp(strings.TrimSpace(parts[0]), ',')
	if err != nil {
		return 0, 0, fmt.Errorf("start timestamp: %w", err)
	}
	end, err := parseTimestamp(strings.TrimSpace(strings.Fields(parts[1])[0]), ',')
	if err != nil {
		return 0, 0, fmt.Errorf("end timestamp: %w", err)
	}
	return start, end, nil
}

// parseVTT parses a minimal WebVTT document: an optional "WEBVTT"
// header, then cue blocks identical in shape to SRT but with "."
// separating milliseconds instead of ",".
func parseVTT(data []byte) ([]cue, error) {
	var cues []cue
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	i := 0
	if i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "WEBVTT") {
		i++
	}

	for i < len(lines) {
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i >= len(lines) {
			break
		}
		if !strings.Contains(lines[i], "-->") {
			// Optional cue identifier line.
			i++
		}
		if i >= len(lines) {
			return nil, fmt.Errorf("truncated cue: missing timing line")
		}
		start, end, err := parseVTTTiming(lines[i])
		if err != nil {
			return nil, err
		}
		i++
		var text []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			text = append(text, lines[i])
			i++
		}
		cues = append(cues, cue{start: start, end: end, lines: text})
	}
	return cues, nil
}

func parseVTTTiming(line string) (time.Duration, time.Duration, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed timing line: %q", line)
	}
	start, err := parseTimestamp(strings.TrimSpace(parts[0]), '.')
	if err != nil {
		return 0, 0, fmt.Errorf("start timestamp: %w", err)
	}
	end, err := parseTimestamp(strings.TrimSpace(strings.Fields(parts[1])[0]), '.')
	if err != nil {
		return 0, 0, fmt.Errorf("end timestamp: %w", err)
	}
	return start, end, nil
}

// parseTimestamp parses "HH:MM:SS<sep>mmm" into a time.Duration.
func parseTimestamp(s string, sep byte) (time.Duration, error) {
	fracIdx := strings.LastIndexByte(s, sep)
	if fracIdx < 0 {
		return 0, fmt.Errorf("missing fractional separator %q in %q", string(sep), s)
	}
	clock, frac := s[:fracIdx], s[fracIdx+1:]
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS, got %q", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, err
	}
	millis, err := strconv.Atoi(frac)
	if err != nil {
		return 0, err
	}
	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return d, nil
}

func formatTimestamp(d time.Duration, sep byte) string {
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, millis)
}

func renderSRT(cues []cue) []byte {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(c.start, ','), formatTimestamp(c.end, ','))
		for _, line := range c.lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func renderVTT(cues []cue) []byte {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, c := range cues {
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(c.start, '.'), formatTimestamp(c.end, '.'))
		for _, line := range c.lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
