// package formatter renders hits, playlists and stats as tables, CSV, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/shared"
)

// Format is an output format for hit lists.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatText  Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatText}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Export renders hits in format f.
func Export(hits []models.Hit, f Format) ([]byte, error) {
	switch f {
	case FormatTable:
		return ExportToTable(hits)
	case FormatJSON:
		return ExportToJSON(hits)
	case FormatCSV:
		return ExportToCSV(hits)
	case FormatText:
		return ExportToText(hits)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// WriteHits renders hits in format f to w.
func WriteHits(w io.Writer, hits []models.Hit, f Format) error {
	data, err := Export(hits, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ExportToCSV converts hits to CSV with columns: Name, YouTube ID, Thumbnail URL
func ExportToCSV(hits []models.Hit) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Name", "YouTube ID", "Thumbnail URL"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, h := range hits {
		if err := writer.Write([]string{h.Name, h.YoutubeID, h.ThumbnailURL}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts hits to an indented JSON array. An empty list is "[]".
func ExportToJSON(hits []models.Hit) ([]byte, error) {
	if hits == nil {
		hits = []models.Hit{}
	}
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToText converts hits to a numbered plain text list
func ExportToText(hits []models.Hit) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hits: %d\n\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(&buf, "%d. %s\n   %s\n", i+1, h.Name, WatchURL(h.YoutubeID))
	}

	return buf.Bytes(), nil
}

// ExportToTable renders hits as a table.
func ExportToTable(hits []models.Hit) ([]byte, error) {
	rows := make([][]string, len(hits))
	for i, h := range hits {
		rows[i] = []string{strconv.Itoa(i + 1), h.Name, h.YoutubeID, WatchURL(h.YoutubeID)}
	}
	return renderTable([]string{"#", "Name", "YouTube ID", "URL"}, rows)
}

// StatsTable renders entity counts as a table.
func StatsTable(stats models.Stats) ([]byte, error) {
	return renderTable([]string{"Entity", "Count"}, [][]string{
		{"Artists", strconv.Itoa(stats.ArtistCount)},
		{"Tracks", strconv.Itoa(stats.TrackCount)},
		{"Tags", strconv.Itoa(stats.TagCount)},
	})
}

// BrokenTracksTable renders broken-track reports as a table.
func BrokenTracksTable(tracks []models.BrokenTrack) ([]byte, error) {
	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		rows[i] = []string{t.YoutubeID, t.Name}
	}
	return renderTable([]string{"YouTube ID", "Name"}, rows)
}

func renderTable(header []string, rows [][]string) ([]byte, error) {
	out := new(bytes.Buffer)
	table := tablewriter.NewTable(out, tablewriter.WithHeaderAutoFormat(tw.Off))
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return nil, fmt.Errorf("failed to append table row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return nil, fmt.Errorf("failed to render table: %w", err)
	}
	return out.Bytes(), nil
}

// WatchURL is the YouTube watch page for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// WriteExport renders hits in format f into the file at path and returns the path written.
//
// Defaults to hits.{format} as the filename, with "txt" used for tables.
func WriteExport(hits []models.Hit, path string, f Format) (string, error) {
	if path == "" {
		ext := string(f)
		if f == FormatTable {
			ext = string(FormatText)
		}
		path = "hits." + ext
	}

	data, err := Export(hits, f)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
