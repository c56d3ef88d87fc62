package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallocator/domain-expiry/pkg/record"
)

func sample() []record.Record {
	exp := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	return []record.Record{
		{Hostname: "free-name.org", Registered: false},
		{Hostname: "example.com", Registered: true, ExpiresOn: &exp},
	}
}

func TestFormatEmptyRendersHeaderOnly(t *testing.T) {
	out := Format(nil)

	assert.Contains(t, out, "DOMAIN NAME")
	assert.Contains(t, out, "EXPIRES ON")
	assert.Contains(t, out, "REG?")
	assert.NotContains(t, out, "N/A")
	assert.NotContains(t, out, "Yes")
}

func TestFormatRows(t *testing.T) {
	out := Format(sample())
	lines := strings.Split(out, "\n")

	var example, free string
	for _, l := range lines {
		switch {
		case strings.Contains(l, "example.com"):
			example = l
		case strings.Contains(l, "free-name.org"):
			free = l
		}
	}
	require.NotEmpty(t, example, out)
	require.NotEmpty(t, free, out)

	assert.Contains(t, example, "01/05/2025")
	assert.Contains(t, example, "Yes")
	assert.Contains(t, free, "N/A")
	assert.Contains(t, free, "No")

	assert.Less(t, strings.Index(out, "free-name.org"), strings.Index(out, "example.com"), "input order is kept")
}

func TestFormatCSV(t *testing.T) {
	lines := strings.Split(FormatCSV(sample()), "\n")
	require.Len(t, lines, 3)

	assert.True(t, strings.EqualFold("Domain Name,Expires On,Reg?", lines[0]), lines[0])
	assert.Equal(t, "free-name.org,N/A,No", lines[1])
	assert.Equal(t, "example.com,01/05/2025,Yes", lines[2])
}

func TestExport(t *testing.T) {
	assert.Equal(t, "free-name.org\nexample.com", Export(sample()))
	assert.Equal(t, "", Export(nil))
}
