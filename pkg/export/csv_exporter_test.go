package export

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVRenderKeepsRowOrder(t *testing.T) {
	exporter := NewCSVExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Reference", "Customer", "Total"},
		Rows: [][]string{
			{"TW-20260901-A1", "Asha Rao", "27000.00"},
			{"TW-20260902-B2", "Vikram Shah"},
		},
	})
	require.NoError(t, err)
	require.Equal(t,
		"Reference,Customer,Total\nTW-20260901-A1,Asha Rao,27000.00\nTW-20260902-B2,Vikram Shah,\n",
		string(data))
}

func TestCSVRenderRejectsOversizedRow(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{
		Headers: []string{"Reference"},
		Rows:    [][]string{{"TW-1", "extra"}},
	})
	require.Error(t, err)
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	exporter := NewPDFExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Name", "Price"},
		Rows:    [][]string{{"Andaman Escape", "12000.00"}},
	}, "Tour Package Catalog")
	require.NoError(t, err)
	require.True(t, len(data) > 0)
	require.Equal(t, "%PDF", string(data[:4]))
}
