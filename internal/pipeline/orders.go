package pipeline

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"eurosom/internal"
	"eurosom/internal/util"
)

type NewOrder struct {
	Client       string          `json:"client"`
	City         string          `json:"city"`
	PostalCode   string          `json:"postalCode"`
	Salesperson  string          `json:"salesperson"`
	Status       string          `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	Hours        decimal.Decimal `json:"hours"`
	OrderDate    time.Time       `json:"orderDate"`
	InstallDate  *time.Time      `json:"installDate"`
	Anticipation bool            `json:"anticipation"`
	DelayType    string          `json:"delayType"`
}

var (
	ErrMissingClient    = errors.New("order needs a client")
	ErrMissingOrderDate = errors.New("order needs an order date")
)

func (o NewOrder) Validate() error {
	if strings.TrimSpace(o.Client) == "" {
		return ErrMissingClient
	}
	if o.OrderDate.IsZero() {
		return ErrMissingOrderDate
	}
	return nil
}

// BuildOrderRow lays an order out under the same resolved headers the read
// path uses. Every existing header is present, blank unless the order sets it.
// The alert column is left blank and reads as no alert until someone fills it.
func BuildOrderRow(headers []string, res Resolution, order NewOrder, anticipationFlag string) (internal.RawRow, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	row := make(internal.RawRow, len(headers))
	for _, h := range headers {
		row[h] = nil
	}
	set := func(key internal.FieldKey, value any) {
		column := res.Column(key)
		if column == "" {
			return
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return
		}
		row[column] = value
	}

	set(internal.FieldClient, strings.TrimSpace(order.Client))
	set(internal.FieldCity, strings.TrimSpace(order.City))
	set(internal.FieldPostalCode, strings.TrimSpace(order.PostalCode))
	set(internal.FieldSalesperson, strings.TrimSpace(order.Salesperson))
	set(internal.FieldStatus, strings.TrimSpace(order.Status))
	set(internal.FieldAmount, util.FormatSheetAmount(order.Amount))
	if !order.Hours.IsZero() {
		set(internal.FieldHours, util.FormatSheetAmount(order.Hours))
	}
	set(internal.FieldOrderDate, util.FormatDayFirst(order.OrderDate))
	if order.InstallDate != nil && !order.InstallDate.IsZero() {
		set(internal.FieldInstallDate, util.FormatDayFirst(*order.InstallDate))
	}
	if order.Anticipation {
		set(internal.FieldAnticipation, anticipationFlag)
	} else {
		set(internal.FieldAnticipation, "NON")
	}
	set(internal.FieldDelayType, strings.TrimSpace(order.DelayType))

	return row, nil
}

// AppendRow returns a new table with row at the end. Columns the row carries
// but the table lacks are added after the existing headers, sorted by name.
func AppendRow(table internal.Table, row internal.RawRow) internal.Table {
	headers := append([]string(nil), table.Headers...)
	missing := []string{}
	for column := range row {
		if !table.HasHeader(column) {
			missing = append(missing, column)
		}
	}
	sort.Strings(missing)
	headers = append(headers, missing...)

	rows := make([]internal.RawRow, 0, len(table.Rows)+1)
	rows = append(rows, table.Rows...)
	rows = append(rows, row)
	return internal.Table{Headers: headers, Rows: rows}
}
