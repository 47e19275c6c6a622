package service

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// CSVHeader is the first line of a seat export.
var CSVHeader = []string{"id", "row", "num", "status"}

// WriteSeatsCSV writes seats as id,row,num,status in the order given.
func WriteSeatsCSV(w io.Writer, seats []model.Seat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, s := range seats {
		if err := cw.Write([]string{s.ID, s.Row, strconv.Itoa(s.Number), string(s.Status)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
