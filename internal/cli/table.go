package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/llehouerou/trackvault/internal/track"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

var trackHeaders = []string{"#", "ID", "Title", "Artist", "Category", "Length", "Audio", "Cover", "Plays", "Liked"}

var trackAligns = []columnAlignment{
	alignRight, alignLeft, alignLeft, alignLeft, alignLeft,
	alignRight, alignLeft, alignLeft, alignRight, alignLeft,
}

func renderTracks(tracks []track.Track) string {
	rows := make([][]string, 0, len(tracks))
	for i, t := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			t.ID.String(),
			t.Title,
			t.Artist,
			string(t.Category),
			formatDuration(t.Duration),
			formatMedia(t.FilePath, t.FileSize),
			formatMedia(t.CoverImage, t.CoverImageSize),
			strconv.Itoa(t.Plays),
			yesNo(t.Liked),
		})
	}
	return renderTable(trackHeaders, rows, trackAligns)
}

// formatMedia shows where a binary lives and how large it is.
func formatMedia(locator string, size int64) string {
	src := track.SourceOf(locator)
	if src == track.SourceNone {
		return "-"
	}
	if size <= 0 {
		return src.String()
	}
	return fmt.Sprintf("%s %s", src, humanize.IBytes(uint64(size)))
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
