// Package report renders tracked domains as tables for the terminal and email
package report

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mallocator/domain-expiry/pkg/record"
)

// DisplayLayout is the date layout shown in reports
const DisplayLayout = "01/02/2006"

var header = table.Row{"Domain Name", "Expires On", "Reg?"}

// Format renders records as a plain-text table. An empty slice renders the header only.
func Format(records []record.Record) string {
	return newWriter(records).Render()
}

// FormatCSV renders the same columns as comma-separated values
func FormatCSV(records []record.Record) string {
	return newWriter(records).RenderCSV()
}

// Export returns one hostname per line in the given order
func Export(records []record.Record) string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Hostname)
	}
	return strings.Join(names, "\n")
}

func newWriter(records []record.Record) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleDefault)
	t.AppendHeader(header)
	for _, r := range records {
		t.AppendRow(table.Row{r.Hostname, expires(r), yesNo(r.Registered)})
	}
	return t
}

func expires(r record.Record) string {
	if r.ExpiresOn == nil {
		return "N/A"
	}
	return r.ExpiresOn.Format(DisplayLayout)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
