package rank

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/refmatch/internal/table"
)

// Payment sheet defaults
const (
	PaymentsSheet         = "Insurance Payment Avgs"
	paymentsColumnPayment = "Avg Payment"
	paymentsColumnMargin  = "Margin"
)

// PaymentAverages lists insurers for one procedure by average payment,
// highest first. Rows without an insurer are dropped; non-numeric payments
// and margins render as N/A and sort last.
func PaymentAverages(t *table.Table, cols Columns, procedure string) *table.Table {
	var rows []int
	for i := range t.Rows {
		if t.Get(i, cols.Procedure) != procedure || strings.TrimSpace(t.Get(i, cols.Insurance)) == "" {
			continue
		}
		rows = append(rows, i)
	}
	rows = sortDesc(t, rows, paymentsColumnPayment)

	out := make([][]string, len(rows))
	for i, row := range rows {
		payment := "N/A"
		if v := number(t.Get(row, paymentsColumnPayment)); !math.IsNaN(v) {
			payment = fmt.Sprintf("$%.2f", v)
		}
		margin := "N/A"
		if v := number(t.Get(row, paymentsColumnMargin)); !math.IsNaN(v) {
			margin = fmt.Sprintf("%d%%", int(v))
		}
		out[i] = []string{t.Get(row, cols.Insurance), payment, margin}
	}

	return table.New("Insurance Payment Averages: "+procedure,
		[]string{cols.Insurance, paymentsColumnPayment, paymentsColumnMargin}, out)
}

// PaymentProcedures lists procedures present in a payments sheet
func PaymentProcedures(t *table.Table, cols Columns) []string {
	procs := unique(t.Column(cols.Procedure))
	sort.Strings(procs)
	return procs
}
