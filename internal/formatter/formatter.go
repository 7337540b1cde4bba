// package formatter renders resolution results as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/spotlink/internal/shared"
	"github.com/desertthunder/spotlink/internal/tasks"
)

// Format names an output rendering.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name, with "md" and "txt" as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// Extension returns the file extension used by [WriteExport].
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// Export is a set of resolutions for one catalog entity.
type Export struct {
	Kind    string // track, album or playlist
	ID      string
	Results []tasks.Resolution
}

// ExportToCSV renders one row per resolution:
// Index, ID, Title, Artist, Duration, ISRC, Matched, Identifier, URI, Match Title, Match Author, Match Duration, Error
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"Index", "ID", "Title", "Artist", "Duration", "ISRC",
		"Matched", "Identifier", "URI", "Match Title", "Match Author", "Match Duration", "Error",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, res := range export.Results {
		record := make([]string, 0, len(headers))
		record = append(record, strconv.Itoa(res.Index))
		if t := res.Track; t != nil {
			record = append(record, t.ID, t.Name, t.PrimaryArtist(), strconv.Itoa(t.DurationMS), t.ISRC)
		} else {
			record = append(record, "", "", "", "", "")
		}

		record = append(record, strconv.FormatBool(res.Matched()))
		if m := res.Match; m != nil {
			record = append(record, m.Info.Identifier, m.Info.URI, m.Info.Title, m.Info.Author, strconv.FormatInt(m.Info.Length, 10))
		} else {
			record = append(record, "", "", "", "", "")
		}
		record = append(record, errString(res.Err))

		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a summary header followed by a numbered track list
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	matched, failed := tasks.Summarize(export.Results)

	fmt.Fprintf(&buf, "# %s %s\n\n", title(export.Kind), export.ID)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Results))
	fmt.Fprintf(&buf, "**Matched**: %d\n", matched)
	fmt.Fprintf(&buf, "**Failed**: %d\n\n", failed)

	buf.WriteString("## Tracks\n\n")
	for _, res := range export.Results {
		fmt.Fprintf(&buf, "%d. %s", res.Index+1, describe(res))
		switch {
		case res.Err != nil:
			fmt.Fprintf(&buf, " - **error**: %s\n", res.Err)
		case res.Match != nil:
			fmt.Fprintf(&buf, " - [%s](%s) [%s]\n", res.Match.Info.Title, res.Match.Info.URI, shared.FormatDuration(int(res.Match.Info.Length)))
		default:
			buf.WriteString(" - _no match_\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders one line per track
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	matched, failed := tasks.Summarize(export.Results)

	fmt.Fprintf(&buf, "%s: %s\n", title(export.Kind), export.ID)
	fmt.Fprintf(&buf, "Tracks: %d (matched %d, failed %d)\n\n", len(export.Results), matched, failed)

	for _, res := range export.Results {
		line := fmt.Sprintf("%d. %s", res.Index+1, describe(res))
		switch {
		case res.Err != nil:
			line += " => error: " + res.Err.Error()
		case res.Match != nil:
			line += " => " + res.Match.Info.URI
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// Render produces export in the given format.
func Render(export *Export, format Format, pretty bool) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	case FormatJSON:
		return shared.MarshalJSON(export.Results, pretty)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// Write renders export to w.
func Write(w io.Writer, export *Export, format Format, pretty bool) error {
	data, err := Render(export, format, pretty)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// WriteExport renders export to a file and returns its path.
//
// Defaults to {kind}_{id}.{ext} when path is empty.
func WriteExport(export *Export, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_%s.%s", export.Kind, export.ID, format.Extension())
	}

	data, err := Render(export, format, true)
	if err != nil {
		return "", fmt.Errorf("failed to render export: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func describe(res tasks.Resolution) string {
	t := res.Track
	if t == nil || t.Name == "" {
		return "(unavailable)"
	}
	return fmt.Sprintf("%s - %s [%s]", t.PrimaryArtist(), t.Name, shared.FormatDuration(t.DurationMS))
}

func title(kind string) string {
	if kind == "" {
		return "Results"
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
