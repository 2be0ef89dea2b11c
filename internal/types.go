package internal

import (
	"time"

	"github.com/shopspring/decimal"
)

type FieldKey string

const (
	FieldClient       FieldKey = "CLIENT"
	FieldCity         FieldKey = "CITY"
	FieldAmount       FieldKey = "AMOUNT"
	FieldOrderDate    FieldKey = "ORDER_DATE"
	FieldInstallDate  FieldKey = "INSTALL_DATE"
	FieldStatus       FieldKey = "STATUS"
	FieldSalesperson  FieldKey = "SALESPERSON"
	FieldPostalCode   FieldKey = "POSTAL_CODE"
	FieldHours        FieldKey = "HOURS"
	FieldAlert        FieldKey = "ALERT"
	FieldAnticipation FieldKey = "ANTICIPATION"
	FieldDelayType    FieldKey = "DELAY_TYPE"
)

type AlertCategory string

const (
	AlertUrgent           AlertCategory = "URGENT"
	AlertLate             AlertCategory = "LATE"
	AlertUpcoming         AlertCategory = "UPCOMING"
	AlertFarHorizon       AlertCategory = "FAR_HORIZON"
	AlertAwaitingSchedule AlertCategory = "AWAITING_SCHEDULE"
	AlertNone             AlertCategory = "NONE"
)

// ColumnSpec binds a semantic field to the header keyword that locates it.
// Default is used verbatim when no header contains Keyword.
type ColumnSpec struct {
	Key     FieldKey `toml:"key"`
	Keyword string   `toml:"keyword"`
	Default string   `toml:"default"`
}

type AlertRule struct {
	Category AlertCategory `toml:"category"`
	Keywords []string      `toml:"keywords"`
}

// RawRow maps a header to its cell value: string, float64, time.Time or nil.
type RawRow map[string]any

// Table is a sheet as read from the external store. Headers keep the sheet's
// column order; every row is keyed by those headers.
type Table struct {
	Headers []string
	Rows    []RawRow
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

func (t Table) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

type NormalizedRow struct {
	Raw RawRow `json:"raw"`

	Client       string `json:"client"`
	City         string `json:"city"`
	Status       string `json:"status"`
	Salesperson  string `json:"salesperson"`
	PostalCode   string `json:"postalCode"`
	Alert        string `json:"alert"`
	Anticipation string `json:"anticipation"`
	DelayType    string `json:"delayType"`

	Amount       decimal.Decimal `json:"amount"`
	Hours        decimal.Decimal `json:"hours"`
	OrderDate    *time.Time      `json:"orderDate"`
	InstallDate  *time.Time      `json:"installDate"`
	OrderMonth   *string         `json:"orderMonth"`
	InstallMonth *string         `json:"installMonth"`
	Department   string          `json:"department"`
	FiscalYear   string          `json:"fiscalYear"`

	Alerts          []AlertCategory `json:"alerts"`
	AnticipateStock bool            `json:"anticipateStock"`
}

func (r NormalizedRow) HasAlert(category AlertCategory) bool {
	for _, c := range r.Alerts {
		if c == category {
			return true
		}
	}
	return false
}

type Snapshot struct {
	Source    string
	FetchedAt time.Time
	Table     Table
}

type RunRow struct {
	ID        int
	TraceID   string
	Source    string
	Timings   map[string]float64
	Counts    map[string]int
	Error     string
	CreatedAt string
}
