package booking

import (
	"fmt"

	"github.com/hidenkeys/studios/guest"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Reservations"

var exportHeaders = []string{
	"ID", "Studio", "Status", "CheckIn", "CheckOut", "Nights", "Adults", "Children",
	"TotalPrice", "GuestName", "Country", "Phone", "Email", "ContactMethods", "CreatedAt",
}

// Workbook writes reservations to a single-sheet spreadsheet. studioNames maps
// studio ids to the names shown in the Studio column.
func Workbook(rs []Reservation, studioNames map[uint]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for i, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, r := range rs {
		name, ok := studioNames[r.UnitID]
		if !ok {
			name = fmt.Sprintf("#%d", r.UnitID)
		}
		c := r.Contact()
		row := []any{
			r.ID.String(), name, string(r.Status),
			r.CheckIn.Format(DateLayout), r.CheckOut.Format(DateLayout), r.Nights(),
			r.Adults, r.Children, int64(r.TotalPrice),
			r.GuestName, r.GuestCountry, c.Value(guest.Phone), r.GuestEmail, c.MethodList(),
			r.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
