package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter formats a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Run Summary\n\n")
	fmt.Fprintf(&b, "Generated at %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Input\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "File", orNA(s.Input.Path))
	row(&b, "Backend", orNA(s.Input.Backend))
	row(&b, "Decoder", orNA(s.Input.Decoder))
	row(&b, "Codec", orNA(string(s.Stream.Codec)))
	row(&b, "Stream", fmt.Sprintf("#%d", s.Stream.Index))
	row(&b, "Size", sizeOrNA(s.Stream.Width, s.Stream.Height))
	if s.Stream.Timescale > 0 {
		row(&b, "Timescale", fmt.Sprintf("%d", s.Stream.Timescale))
	}
	b.WriteString("\n")

	b.WriteString("## Output\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Sink", orNA(s.Output.Sink))
	row(&b, "Format", orNA(s.Output.Format.String()))
	row(&b, "Size", sizeOrNA(s.Output.Size.Width, s.Output.Size.Height))
	b.WriteString("\n")

	b.WriteString("## Counters\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Frames", fmt.Sprintf("%d", s.Counters.Frames))
	row(&b, "Packets", fmt.Sprintf("%d", s.Counters.Packets))
	row(&b, "Skipped packets", fmt.Sprintf("%d", s.Counters.Skipped))
	row(&b, "Other streams", fmt.Sprintf("%d", s.Counters.Foreign))
	if s.Counters.Stopped {
		row(&b, "Ended by", "termination policy")
	} else {
		row(&b, "Ended by", "end of stream")
	}
	row(&b, "Duration", fmt.Sprintf("%d ms", s.Counters.DurationMs))

	if len(s.Output.Files) > 0 {
		b.WriteString("\n## Files\n\n")
		for _, f := range s.Output.Files {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
	}

	return b.String()
}

func row(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", name, value)
}

func orNA(s string) string {
	if s == "" || s == "unknown" {
		return "N/A"
	}
	return s
}

func sizeOrNA(w, h int) string {
	if w <= 0 || h <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

var _ Formatter = (*MarkdownFormatter)(nil)
