// Package exchange maps investments to and from external
// representations: the tabular row form handed to spreadsheet-style
// collaborators, and the JSON document form used for lossless backup.
// The engine never encodes files itself; it produces and consumes rows
// of named string fields and leaves the binary format to the adapter
// on the other side.
package exchange

import (
	"regexp"
	"strconv"
	"strings"

	"lendbook/internal/core"
	"lendbook/internal/date"
	"lendbook/internal/roc"
)

// Column roles, in export order.
const (
	colOrder = iota
	colID
	colSource
	colTickets
	colFunders
	colPrincipal
	colMonthlyRate
	colMonthlyInterest
	colBonusRate
	colBonusAmount
	colBonusPaid
	colStartDate
	colEndDate
	colDuration
	colCurrentPeriod
	colPaidPeriods
	colCollectedInterest
	colStatus
	colNote
	columnCount
)

// Header is the canonical column order of the tabular export.
var Header = []string{
	"No.",
	"ID",
	"Source",
	"Tickets",
	"Funders",
	"Principal",
	"Monthly Rate (%)",
	"Monthly Interest",
	"Bonus Rate (%)",
	"Bonus Amount",
	"Bonus Paid",
	"Start Date",
	"End Date",
	"Duration (Months)",
	"Current Period",
	"Paid Periods",
	"Collected Interest",
	"Status",
	"Note",
}

// headerAliases maps lower-cased header cells to column roles. Besides
// the canonical names it carries the legacy names found in sheets
// exported by the original Chinese-language ledger, so old files import
// without manual fixing.
var headerAliases = map[string]int{
	"no.":                colOrder,
	"no":                 colOrder,
	"序號":                 colOrder,
	"id":                 colID,
	"系統編號":               colID,
	"編號":                 colID,
	"source":             colSource,
	"來源":                 colSource,
	"金主":                 colSource,
	"tickets":            colTickets,
	"ticket":             colTickets,
	"單號":                 colTickets,
	"funders":            colFunders,
	"出資人":                colFunders,
	"出資":                 colFunders,
	"principal":          colPrincipal,
	"amount":             colPrincipal,
	"金額":                 colPrincipal,
	"本金":                 colPrincipal,
	"monthly rate (%)":   colMonthlyRate,
	"monthly rate":       colMonthlyRate,
	"rate":               colMonthlyRate,
	"月利率":                colMonthlyRate,
	"利率":                 colMonthlyRate,
	"monthly interest":   colMonthlyInterest,
	"月利息":                colMonthlyInterest,
	"月息":                 colMonthlyInterest,
	"bonus rate (%)":     colBonusRate,
	"bonus rate":         colBonusRate,
	"紅包費率":               colBonusRate,
	"bonus amount":       colBonusAmount,
	"紅包費":                colBonusAmount,
	"bonus paid":         colBonusPaid,
	"紅包已付":               colBonusPaid,
	"start date":         colStartDate,
	"起始日":                colStartDate,
	"起始日期":               colStartDate,
	"end date":           colEndDate,
	"到期日":                colEndDate,
	"到期日期":               colEndDate,
	"duration (months)":  colDuration,
	"duration":           colDuration,
	"期數":                 colDuration,
	"current period":     colCurrentPeriod,
	"本期":                 colCurrentPeriod,
	"paid periods":       colPaidPeriods,
	"已收期數":               colPaidPeriods,
	"collected interest": colCollectedInterest,
	"已收利息":               colCollectedInterest,
	"status":             colStatus,
	"狀態":                 colStatus,
	"note":               colNote,
	"備註":                 colNote,
}

// Import defaults for numeric fields that are missing or unparseable.
const (
	DefaultMonthlyRate = 1.2
	DefaultBonusRate   = 0.5
	DefaultDuration    = 12
)

var statusAliases = map[string]core.Status{
	"active":     core.StatusActive,
	"進行中":        core.StatusActive,
	"renewed":    core.StatusRenewed,
	"續約":         core.StatusRenewed,
	"returned":   core.StatusReturned,
	"已歸還":        core.StatusReturned,
	"歸還":         core.StatusReturned,
	"reinvested": core.StatusReinvested,
	"轉投資":        core.StatusReinvested,
	"defaulted":  core.StatusDefaulted,
	"違約":         core.StatusDefaulted,
}

// funderPattern matches one "Name(amount萬)" entry of a funder summary
// cell; the unit suffix is optional on import.
var funderPattern = regexp.MustCompile(`^\s*(.+?)\s*\(\s*([0-9]+(?:\.[0-9]+)?)\s*萬?\s*\)\s*$`)

// BuildTable renders the collection as the canonical header plus one
// row per investment, sorted by manual order ascending. Dates are shown
// in ROC display form.
func BuildTable(investments []core.Investment, today date.Date) ([]string, [][]string) {
	rows := make([][]string, 0, len(investments))
	for _, inv := range core.SortedByOrder(investments) {
		rows = append(rows, BuildRow(inv, today))
	}
	return append([]string(nil), Header...), rows
}

// BuildRow renders a single investment in canonical column order.
func BuildRow(inv core.Investment, today date.Date) []string {
	row := make([]string, columnCount)
	row[colOrder] = strconv.Itoa(inv.Order)
	row[colID] = inv.ID
	row[colSource] = inv.Source
	row[colTickets] = inv.TicketSummary()
	row[colFunders] = FunderSummary(inv.Funders)
	row[colPrincipal] = strconv.FormatInt(inv.Principal, 10)
	row[colMonthlyRate] = core.FormatRate(inv.MonthlyRate)
	row[colMonthlyInterest] = strconv.FormatInt(inv.MonthlyInterest(), 10)
	row[colBonusRate] = core.FormatRate(inv.BonusRate)
	row[colBonusAmount] = strconv.FormatInt(inv.BonusAmount(), 10)
	row[colBonusPaid] = yesNo(inv.BonusPaid)
	row[colStartDate] = roc.FormatDisplay(inv.Start)
	row[colEndDate] = roc.FormatDisplay(inv.End)
	row[colDuration] = strconv.Itoa(inv.DurationMonths)
	row[colCurrentPeriod] = strconv.Itoa(inv.CurrentPeriod(today))
	row[colPaidPeriods] = strconv.Itoa(inv.PaidCount())
	row[colCollectedInterest] = strconv.FormatInt(inv.CollectedInterest(), 10)
	row[colStatus] = string(inv.Status)
	row[colNote] = inv.Note
	return row
}

// FunderSummary renders funders as "Name(amount萬)" entries joined by
// commas, amounts in ten-thousand units.
func FunderSummary(funders []core.Funder) string {
	if len(funders) == 0 {
		return ""
	}
	parts := make([]string, 0, len(funders))
	for _, f := range funders {
		parts = append(parts, f.Name+"("+strconv.FormatInt(core.TenThousands(f.Amount), 10)+"萬)")
	}
	return strings.Join(parts, ",")
}

// ParseTable maps tabular rows back to investment candidates on a
// best-effort basis. Columns are located by header name, canonical or
// legacy; rows that carry neither a source nor a principal are
// dropped. Missing numeric fields fall back to the documented
// defaults, a missing id gets a fresh one so the row can never
// accidentally conflict, and payment history is always empty because
// the flat format cannot represent it. When not a single candidate
// survives, ErrNoValidData is returned so callers can tell "nothing
// usable" apart from "nothing read".
func ParseTable(header []string, rows [][]string, today date.Date) ([]core.Investment, error) {
	roles := headerIndex(header)
	candidates := make([]core.Investment, 0, len(rows))
	for _, row := range rows {
		if inv, ok := parseRow(roles, row, today); ok {
			candidates = append(candidates, inv)
		}
	}
	if len(candidates) == 0 {
		return nil, core.ErrNoValidData
	}
	return candidates, nil
}

// headerIndex maps column roles to cell positions for the given
// header. Unrecognized columns are ignored; when the header is empty
// the canonical order is assumed.
func headerIndex(header []string) map[int]int {
	roles := make(map[int]int, columnCount)
	if len(header) == 0 {
		for role := 0; role < columnCount; role++ {
			roles[role] = role
		}
		return roles
	}
	for pos, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		if role, ok := headerAliases[name]; ok {
			if _, taken := roles[role]; !taken {
				roles[role] = pos
			}
		}
	}
	return roles
}

func parseRow(roles map[int]int, row []string, today date.Date) (core.Investment, bool) {
	cell := func(role int) string {
		pos, ok := roles[role]
		if !ok || pos >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[pos])
	}

	source := cell(colSource)
	principal, hasPrincipal := parseInt(cell(colPrincipal))
	if source == "" && !hasPrincipal {
		return core.Investment{}, false
	}

	inv := core.Investment{
		ID:        cell(colID),
		Source:    source,
		Principal: principal,
		Note:      cell(colNote),
		BonusPaid: parseYesNo(cell(colBonusPaid)),
		Funders:   parseFunderSummary(cell(colFunders)),
	}
	if inv.ID == "" {
		inv.ID = core.NewID()
	}
	if order, ok := parseInt(cell(colOrder)); ok {
		inv.Order = int(order)
	}

	inv.MonthlyRate = parseFloatDefault(cell(colMonthlyRate), DefaultMonthlyRate)
	inv.BonusRate = parseFloatDefault(cell(colBonusRate), DefaultBonusRate)
	if d, ok := parseInt(cell(colDuration)); ok && d >= 1 {
		inv.DurationMonths = int(d)
	} else {
		inv.DurationMonths = DefaultDuration
	}

	inv.Start = roc.ParseLoose(cell(colStartDate), today)
	inv.End = inv.Start.AddMonths(inv.DurationMonths)

	if status, ok := statusAliases[strings.ToLower(cell(colStatus))]; ok {
		inv.Status = status
	} else {
		inv.Status = core.StatusActive
	}

	assignTickets(&inv, cell(colTickets))
	return inv, true
}

// assignTickets distributes the ticket-summary cell: the lone master
// ticket when there are no funders, otherwise one ticket per funder in
// cell order. Entries the cell does not cover are derived from the row
// itself.
func assignTickets(inv *core.Investment, cell string) {
	tickets := splitList(cell)
	if len(inv.Funders) == 0 {
		if len(tickets) > 0 {
			inv.Ticket = tickets[0]
		} else {
			inv.Ticket = core.TicketString(inv.End, inv.Source, inv.Principal, inv.MonthlyRate)
		}
		return
	}
	for i := range inv.Funders {
		if i < len(tickets) {
			inv.Funders[i].Ticket = tickets[i]
		} else {
			inv.Funders[i].Ticket = core.TicketString(inv.End, inv.Funders[i].Name, inv.Funders[i].Amount, inv.MonthlyRate)
		}
	}
	inv.Ticket = core.TicketString(inv.End, inv.Source, inv.Principal, inv.MonthlyRate)
}

// parseFunderSummary reverse-parses "Name(amount萬)" entries. Entries
// that do not match the pattern are skipped.
func parseFunderSummary(cell string) []core.Funder {
	if cell == "" {
		return nil
	}
	var funders []core.Funder
	for _, part := range splitList(cell) {
		m := funderPattern.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		funders = append(funders, core.Funder{
			ID:     core.NewID(),
			Name:   m[1],
			Amount: core.FromTenThousands(amount),
		})
	}
	return funders
}

func splitList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	// Full-width commas appear in legacy sheets.
	cell = strings.ReplaceAll(cell, "，", ",")
	parts := strings.Split(cell, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseYesNo(cell string) bool {
	switch strings.ToLower(cell) {
	case "yes", "y", "true", "1", "是", "已付":
		return true
	}
	return false
}

// parseInt reads an integer cell, tolerating comma grouping.
func parseInt(cell string) (int64, bool) {
	cell = strings.ReplaceAll(cell, ",", "")
	if cell == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseFloatDefault reads a numeric cell, tolerating a trailing percent
// sign, and falls back to the documented default.
func parseFloatDefault(cell string, fallback float64) float64 {
	cell = strings.TrimSuffix(strings.TrimSpace(cell), "%")
	if cell == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return fallback
	}
	return f
}
