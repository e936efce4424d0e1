package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"portfolio-dashboard-bot/internal/types"

	"github.com/pkg/errors"
)

// Header is the column order of exported holdings
var Header = []string{"name", "ticker", "buy_price", "current_price", "buy_date", "quantity"}

// FileName is the suggested name of the download
const FileName = "portfolio.csv"

// WriteCSV writes holdings as CSV, one row per purchase in insertion order
func WriteCSV(w io.Writer, holdings []types.Holding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	for _, h := range holdings {
		row := []string{
			h.Name,
			h.Ticker,
			h.BuyPrice.String(),
			h.CurrentPrice.String(),
			h.BuyDate.Format(types.DateLayout),
			strconv.FormatInt(h.Quantity, 10),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write csv row for %s", h.Ticker)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}

// CSV returns the exported holdings as bytes
func CSV(holdings []types.Holding) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, holdings); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
