package dataset

import (
	"github.com/austindbirch/supportflow/internal/ticket"
)

// Column names every ticket dataset must expose
const (
	ColumnID            = "id"
	ColumnChannel       = "channel"
	ColumnCustomerName  = "customer_name"
	ColumnSubject       = "subject"
	ColumnFullMessage   = "fullMessage"
	ColumnSentimentName = "sentiment_name"
)

// RequiredColumns lists the required header names in the order they are reported when missing
var RequiredColumns = []string{
	ColumnID,
	ColumnChannel,
	ColumnCustomerName,
	ColumnSubject,
	ColumnFullMessage,
	ColumnSentimentName,
}

// Dataset is a tabular batch of tickets. Each row is aligned with Columns.
type Dataset struct {
	Columns []string
	Rows    [][]any
}

// Stats summarizes a dataset for preview
type Stats struct {
	Total           int `json:"total"`
	UniqueChannels  int `json:"unique_channels"`
	UniqueCustomers int `json:"unique_customers"`
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether the header contains name (case-sensitive)
func (d *Dataset) HasColumn(name string) bool {
	return d.index(name) >= 0
}

func (d *Dataset) index(name string) int {
	if d == nil {
		return -1
	}
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Records maps each row to a ticket record, preserving row order. Columns that are
// absent or cells past the end of a short row come back as nil.
func (d *Dataset) Records() []ticket.Record {
	if d.Len() == 0 {
		return nil
	}
	idx := map[string]int{}
	for _, name := range RequiredColumns {
		idx[name] = d.index(name)
	}
	records := make([]ticket.Record, 0, len(d.Rows))
	for _, row := range d.Rows {
		cell := func(name string) any {
			i := idx[name]
			if i < 0 || i >= len(row) {
				return nil
			}
			return row[i]
		}
		records = append(records, ticket.Record{
			ID:            cell(ColumnID),
			Channel:       cell(ColumnChannel),
			CustomerName:  cell(ColumnCustomerName),
			Subject:       cell(ColumnSubject),
			FullMessage:   cell(ColumnFullMessage),
			SentimentName: cell(ColumnSentimentName),
		})
	}
	return records
}

// Stats counts rows, distinct channels and distinct customer names. Missing values are
// not counted as a distinct entry.
func (d *Dataset) Stats() Stats {
	st := Stats{Total: d.Len()}
	channels := map[string]struct{}{}
	customers := map[string]struct{}{}
	for _, r := range d.Records() {
		if r.Channel != nil {
			if v := ticket.Text(r.Channel); v != "" {
				channels[v] = struct{}{}
			}
		}
		if r.CustomerName != nil {
			if v := ticket.Text(r.CustomerName); v != "" {
				customers[v] = struct{}{}
			}
		}
	}
	st.UniqueChannels = len(channels)
	st.UniqueCustomers = len(customers)
	return st
}
