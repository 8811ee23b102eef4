package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xuri/excelize/v2"
)

func TestInventoryXLSX(t *testing.T) {
	port := 1
	fp := &models.FloorPlan{
		Name: "Ground floor",
		Racks: []models.Rack{
			{
				Name:   "R1",
				TotalU: 42,
				Equipment: []models.Equipment{
					{
						Name: "Relay panel", StartU: 1, HeightU: 4, Category: "PROTECTION",
						Ports: []models.Port{{Name: "eth0", PortType: "LAN", PortNumber: &port}},
					},
					{Name: "Core switch", StartU: 10, HeightU: 1, Category: "NETWORK"},
				},
			},
			{Name: "R2", TotalU: 24},
		},
	}

	out, err := InventoryXLSX(fp)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{SheetRacks, SheetEquipment, SheetPorts}, f.GetSheetList())

	racks, err := f.GetRows(SheetRacks)
	require.NoError(t, err)
	require.Len(t, racks, 3)
	assert.Equal(t, rackHeaders, racks[0])
	assert.Equal(t, []string{"R1", "", "42", "5", "37", "0", "0", "0"}, racks[1])
	assert.Equal(t, "24", racks[2][4])

	equipment, err := f.GetRows(SheetEquipment)
	require.NoError(t, err)
	require.Len(t, equipment, 3)
	assert.Equal(t, "Relay panel", equipment[1][1])
	assert.Equal(t, "4", equipment[1][4])

	ports, err := f.GetRows(SheetPorts)
	require.NoError(t, err)
	require.Len(t, ports, 2)
	require.GreaterOrEqual(t, len(ports[1]), 5)
	assert.Equal(t, []string{"R1", "Relay panel", "eth0", "LAN", "1"}, ports[1][:5])
}
