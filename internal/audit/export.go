package audit

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"id", "at", "actor_id", "action", "entity", "entity_id", "meta"}

// WriteCSV encodes rows with a header line.
func WriteCSV(w io.Writer, rows []TimelineRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.ID, 10),
			row.At.UTC().Format(time.RFC3339),
			strconv.FormatInt(row.ActorID, 10),
			row.Action,
			row.Entity,
			row.EntityID,
			string(row.Meta),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
