package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduleDataset() Dataset {
	return Dataset{
		Headers: []string{"Visit Code", "Branch", "Date", "Status"},
		Rows: []map[string]string{
			{"Visit Code": "VST-0001", "Branch": "branch-1", "Date": "06-Jan-2024", "Status": "scheduled"},
			{"Visit Code": "VST-0002", "Branch": "branch-2", "Date": "05-Feb-2024", "Status": "scheduled"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(scheduleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Visit Code,Branch,Date,Status", lines[0])
	assert.Contains(t, lines[1], "VST-0001")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(scheduleDataset(), "Maintenance Schedule")
	require.NoError(t, err)
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
