package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/georisk/georisk/internal/model"
)

// DatasetSchemaVersion identifies the column contract of the published
// CSV. Bump it whenever countyHeader changes shape or meaning so
// downstream consumers can pin against it.
const DatasetSchemaVersion = "1"

// countyHeader is the column order of the published dataset.
var countyHeader = []string{
	"state_id",
	"state_name",
	"county_fips",
	"county_name",
	"hifca_flag",
	"hidta_flag",
	"hifca_hidta_flag",
	"hifca_tier",
	"source_url",
	"last_extracted_date",
}

// WriteCounties writes the merged county dataset as CSV. Flag columns use
// 0/1 and dates use YYYY-MM-DD, matching the published dataset format.
func WriteCounties(output io.Writer, counties []model.County) error {
	cw := csv.NewWriter(output)

	if err := cw.Write(countyHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range counties {
		record := []string{
			c.StateID,
			c.StateName,
			c.CountyFIPS,
			c.CountyName,
			flag(c.HIFCA),
			flag(c.HIDTA),
			string(c.Designation()),
			c.HIFCATier,
			c.SourceURL,
			c.ExtractedAt.Format("2006-01-02"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write county %s: %w", c.CountyFIPS, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
