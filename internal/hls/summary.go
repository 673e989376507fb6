// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package hls inspects HTTP Live Streaming playlists.
package hls

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotPlaylist is returned when the input does not start with #EXTM3U.
var ErrNotPlaylist = errors.New("not an HLS playlist")

// Playlist kinds.
const (
	KindMedia  = "media"
	KindMaster = "master"
)

// Variant is one #EXT-X-STREAM-INF entry of a master playlist.
type Variant struct {
	URI        string `json:"uri"`
	Bandwidth  int    `json:"bandwidth,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Codecs     string `json:"codecs,omitempty"`
}

// Summary describes a playlist's timeline or variants.
type Summary struct {
	Kind           string        `json:"kind"`
	Version        int           `json:"version,omitempty"`
	TargetDuration time.Duration `json:"-"`
	TotalDuration  time.Duration `json:"-"`
	VOD            bool          `json:"vod"`
	HasPDT         bool          `json:"hasProgramDateTime"`
	FirstPDT       time.Time     `json:"-"`
	LastPDT        time.Time     `json:"-"`
	Segments       []string      `json:"segments"`
	Variants       []Variant     `json:"variants,omitempty"`
}

// Parse reads a playlist. For media playlists it enforces that #EXTINF
// durations parse, that program date times never move backwards and that a
// live playlist either labels every segment with a PDT or none.
func Parse(data []byte) (*Summary, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	s := &Summary{Kind: KindMedia, Segments: []string{}}

	var (
		sawHeader       bool
		nextDuration    time.Duration
		nextPDT         time.Time
		pendingVariant  *Variant
		hasEndList      bool
		segmentsWithPDT int
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !sawHeader {
			if !strings.HasPrefix(line, "#EXTM3U") {
				return nil, ErrNotPlaylist
			}
			sawHeader = true
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXT-X-VERSION:"):
			v, err := strconv.Atoi(strings.TrimPrefix(line, "#EXT-X-VERSION:"))
			if err != nil {
				return nil, fmt.Errorf("invalid EXT-X-VERSION: %s", line)
			}
			s.Version = v

		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			secs, err := strconv.ParseFloat(strings.TrimPrefix(line, "#EXT-X-TARGETDURATION:"), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid EXT-X-TARGETDURATION: %s", line)
			}
			s.TargetDuration = seconds(secs)

		case strings.HasPrefix(line, "#EXT-X-PLAYLIST-TYPE:VOD"):
			s.VOD = true

		case line == "#EXT-X-ENDLIST":
			hasEndList = true

		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			s.Kind = KindMaster
			v := parseStreamInf(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
			pendingVariant = &v

		case strings.HasPrefix(line, "#EXT-X-PROGRAM-DATE-TIME:"):
			raw := strings.TrimPrefix(line, "#EXT-X-PROGRAM-DATE-TIME:")
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return nil, fmt.Errorf("invalid PDT format: %s", raw)
			}
			if !s.LastPDT.IsZero() && t.Before(s.LastPDT) {
				return nil, fmt.Errorf("PDT non-monotonic: %v < %v", t, s.LastPDT)
			}
			nextPDT = t
			s.LastPDT = t

		case strings.HasPrefix(line, "#EXTINF:"):
			durPart := strings.TrimPrefix(line, "#EXTINF:")
			if idx := strings.Index(durPart, ","); idx != -1 {
				durPart = durPart[:idx]
			}
			secs, err := strconv.ParseFloat(durPart, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid EXTINF duration: %s", durPart)
			}
			nextDuration = seconds(secs)

		case strings.HasPrefix(line, "#"):
			// other tags and comments

		default:
			if pendingVariant != nil {
				pendingVariant.URI = line
				s.Variants = append(s.Variants, *pendingVariant)
				pendingVariant = nil
				continue
			}
			s.Segments = append(s.Segments, line)
			s.TotalDuration += nextDuration
			if !nextPDT.IsZero() {
				segmentsWithPDT++
				if s.FirstPDT.IsZero() {
					s.FirstPDT = nextPDT
				}
			}
			nextDuration = 0
			nextPDT = time.Time{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !sawHeader {
		return nil, ErrNotPlaylist
	}

	s.VOD = s.VOD || hasEndList
	s.HasPDT = segmentsWithPDT > 0
	if s.Kind == KindMedia && !s.VOD && s.HasPDT && segmentsWithPDT != len(s.Segments) {
		return nil, fmt.Errorf("partial PDT coverage in live playlist (found %d/%d)", segmentsWithPDT, len(s.Segments))
	}
	return s, nil
}

// parseStreamInf reads the attributes of an EXT-X-STREAM-INF tag. Quoted
// values may contain commas.
func parseStreamInf(attrs string) Variant {
	var v Variant
	for attrs != "" {
		key, rest, ok := strings.Cut(attrs, "=")
		if !ok {
			break
		}
		var value string
		if strings.HasPrefix(rest, `"`) {
			end := strings.Index(rest[1:], `"`)
			if end < 0 {
				value, rest = rest[1:], ""
			} else {
				value, rest = rest[1:end+1], rest[end+2:]
			}
			rest = strings.TrimPrefix(rest, ",")
		} else {
			value, rest, _ = strings.Cut(rest, ",")
		}

		switch strings.TrimSpace(key) {
		case "BANDWIDTH":
			v.Bandwidth, _ = strconv.Atoi(value)
		case "RESOLUTION":
			v.Resolution = value
		case "CODECS":
			v.Codecs = value
		}
		attrs = rest
	}
	return v
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
