// Package lyrics looks up song lyrics on lrclib.net and keeps recent answers
// in memory, keyed by a normalized artist and title.
package lyrics

import (
	"bufio"
	"cmp"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Line is one lyric line. Every Time is zero for unsynced lyrics.
type Line struct {
	Time time.Duration
	Text string
}

// Lyrics is a parsed lyric sheet.
type Lyrics struct {
	Title  string
	Artist string
	Album  string
	Lines  []Line
}

var (
	// [mm:ss], [mm:ss.xx], [mm:ss.xxx] or [mm:ss:xx]
	stampRe = regexp.MustCompile(`\[(\d+):(\d{1,2})(?:[.:](\d{1,3}))?\]`)
	// [ar:Artist]
	tagRe = regexp.MustCompile(`^\[([a-zA-Z]+):(.*)\]$`)
)

// ParseLRC reads LRC lyrics. A line may carry several time stamps; it is
// emitted once per stamp. Lines come back sorted by time.
func ParseLRC(r io.Reader) (*Lyrics, error) {
	l := &Lyrics{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		if m := tagRe.FindStringSubmatch(raw); m != nil && !stampRe.MatchString(raw) {
			l.setTag(strings.ToLower(m[1]), strings.TrimSpace(m[2]))
			continue
		}

		stamps := stampRe.FindAllStringSubmatchIndex(raw, -1)
		if len(stamps) == 0 {
			continue
		}
		text := strings.TrimSpace(raw[stamps[len(stamps)-1][1]:])
		for _, s := range stamps {
			l.Lines = append(l.Lines, Line{Time: stampAt(raw, s), Text: text})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(l.Lines, func(a, b Line) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return l, nil
}

// FromPlain builds unsynced lyrics from plain text, dropping blank lines.
func FromPlain(text string) *Lyrics {
	l := &Lyrics{}
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			l.Lines = append(l.Lines, Line{Text: line})
		}
	}
	return l
}

func (l *Lyrics) setTag(tag, value string) {
	switch tag {
	case "ar":
		l.Artist = value
	case "ti":
		l.Title = value
	case "al":
		l.Album = value
	}
}

// stampAt converts the submatch indexes of one stamp into a duration.
func stampAt(raw string, idx []int) time.Duration {
	group := func(n int) string {
		if idx[2*n] < 0 {
			return ""
		}
		return raw[idx[2*n]:idx[2*n+1]]
	}
	minutes, _ := strconv.Atoi(group(1))
	seconds, _ := strconv.Atoi(group(2))

	// Fractions are decimal: .5 and .50 are both half a second.
	var millis int
	if frac := group(3); frac != "" {
		frac += strings.Repeat("0", 3-len(frac))
		millis, _ = strconv.Atoi(frac)
	}
	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
}

// Synced reports whether any line has a time stamp.
func (l *Lyrics) Synced() bool {
	return slices.ContainsFunc(l.Lines, func(line Line) bool { return line.Time > 0 })
}

// LineAt returns the index of the line active at pos, or -1 before the first
// line and for unsynced lyrics.
func (l *Lyrics) LineAt(pos time.Duration) int {
	if !l.Synced() {
		return -1
	}
	i, found := slices.BinarySearchFunc(l.Lines, pos, func(line Line, p time.Duration) int {
		return cmp.Compare(line.Time, p)
	})
	if found {
		// Several lines may share a stamp; the last one wins.
		for i+1 < len(l.Lines) && l.Lines[i+1].Time == pos {
			i++
		}
		return i
	}
	return i - 1
}

// Text joins the lines with newlines.
func (l *Lyrics) Text() string {
	var b strings.Builder
	for i, line := range l.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Text)
	}
	return b.String()
}
