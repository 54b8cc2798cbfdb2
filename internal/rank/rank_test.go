package rank

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/refmatch/internal/errors"
	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/table"
	"github.com/ppiankov/refmatch/internal/workbook"
)

func doctors() *table.Table {
	return table.New(model.SheetDoctorMatching,
		[]string{"Referring Physician", "Prioritization Index", "Specialty", "Insurance", "Referrals", "Luis, Gerardo o Alex", "Address", "Phone Number", "CAGR"},
		[][]string{
			{"Ann Lee", "50", "Cardiology", "Aetna", "4", "Luis", "1 First Ave", "555-1", "0.125"},
			{"Bob Kay", "90", "Oncology", "Cigna", "7", "", "2 Second Ave"},
			{"Ann Lee", "70", "Cardiology", "Humana", "9", "", "3 Third Ave", "555-3"},
			{"Cy Dee", "", "Cardiology", "", "", "Alex"},
			{"Di Eve", "n/a", "Oncology", "Aetna", "2"},
			{"Ed Fox", "70", "Cardiology", "Aetna", "1"},
		})
}

func procedures() *table.Table {
	return table.New(model.SheetProcedurePriority,
		[]string{"Referring Physician", "Procedure", "Prioritization Index Procedure", "Referrals"},
		[][]string{
			{"Ann Lee", "MRI", "3", "2"},
			{"Bob Kay", "MRI", "8", "5"},
			{"Ann Lee", "MRI", "9", "6"},
			{"Cy Dee", "MRI", "", "1"},
			{"Ann Lee", "CT", "1", "1"},
			{"Ed Fox", "CT", "4", "3"},
		})
}

func newTestRanker() *Ranker {
	return NewRanker(doctors(), procedures(), DefaultColumns())
}

func TestTopDoctors(t *testing.T) {
	top := newTestRanker().TopDoctors(0)

	assert.Equal(t, []string{"Rank", "Referring Physician", "Specialty", "Insurance", "Referrals", "Luis, Gerardo o Alex"}, top.Headers)
	assert.Equal(t, []string{"Bob Kay", "Ann Lee", "Ed Fox", "Cy Dee", "Di Eve"}, top.Column("Referring Physician"),
		"sorted desc, ties in sheet order, non-numeric last, one row per physician")
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, top.Column("Rank"))

	// Ann Lee keeps the highest-index row
	assert.Equal(t, "Humana", top.Get(1, "Insurance"))
	assert.Equal(t, "NO", top.Get(1, "Luis, Gerardo o Alex"))
	assert.Equal(t, "YES, Alex", top.Get(3, "Luis, Gerardo o Alex"))

	limited := newTestRanker().TopDoctors(2)
	assert.Equal(t, 2, limited.Len())
}

func TestSpecialtyRanking(t *testing.T) {
	got := newTestRanker().SpecialtyRanking("Cardiology")
	assert.Equal(t, []string{"Ann Lee", "Ed Fox", "Cy Dee"}, got.Column("Referring Physician"))

	assert.Equal(t, 0, newTestRanker().SpecialtyRanking("Dermatology").Len())
}

func TestProcedureRanking(t *testing.T) {
	got := newTestRanker().ProcedureRanking("MRI")

	assert.Equal(t, []string{"Rank", "Referring Physician", "Procedure", "Referrals", "Luis, Gerardo o Alex"}, got.Headers)
	assert.Equal(t, []string{"Ann Lee", "Bob Kay"}, got.Column("Referring Physician"), "blank index excluded")
	assert.Equal(t, "6", got.Get(0, "Referrals"))
	assert.Equal(t, "YES, Luis", got.Get(0, "Luis, Gerardo o Alex"), "contact from first doctor row")
	assert.Equal(t, "NO", got.Get(1, "Luis, Gerardo o Alex"))
}

func TestLists(t *testing.T) {
	r := newTestRanker()
	assert.Equal(t, []string{"MRI", "CT"}, r.Procedures())
	assert.Equal(t, []string{"Cardiology", "Oncology"}, r.Specialties())
	assert.Equal(t, []string{"Ann Lee", "Bob Kay", "Cy Dee", "Di Eve", "Ed Fox"}, r.Physicians())
}

func TestProfile(t *testing.T) {
	p, err := newTestRanker().Profile("Ann Lee")
	require.NoError(t, err)

	assert.Equal(t, 2, p.Rank)
	assert.Equal(t, 6, p.Total)
	assert.Equal(t, "Cardiology", p.Specialty)
	assert.Equal(t, []string{"Aetna", "Humana"}, p.Insurances)
	assert.Equal(t, "YES, Luis", p.Contact)
	assert.Equal(t, "9", p.MaxReferrals)
	assert.Equal(t, "12.50%", p.Growth)
	assert.Equal(t, []ProcedureRank{
		{Procedure: "MRI", Rank: 1, Total: 3},
		{Procedure: "CT", Rank: 2, Total: 2},
	}, p.Procedures)
	require.Len(t, p.Locations, 2)
	assert.Equal(t, "555-3", p.Locations[1].Phone)
}

func TestProfile_NoData(t *testing.T) {
	p, err := newTestRanker().Profile("Cy Dee")
	require.NoError(t, err)

	assert.Empty(t, p.Insurances)
	assert.Empty(t, p.MaxReferrals)
	assert.Empty(t, p.Growth)
	assert.Empty(t, p.Procedures, "blank procedure index has no rank")
	assert.Empty(t, p.Locations)
}

func TestProfile_NotFound(t *testing.T) {
	_, err := newTestRanker().Profile("Nobody")
	assert.True(t, errors.Is(err, ErrDoctorNotFound))
}

func TestPaymentAverages(t *testing.T) {
	payments := table.New(PaymentsSheet,
		[]string{"Procedure", "Insurance", "Avg Payment", "Margin"},
		[][]string{
			{"MRI", "Aetna", "120.5", "30"},
			{"MRI", "", "999", "1"},
			{"MRI", "Cigna", "", "12.7"},
			{"MRI", "Humana", "310", ""},
			{"CT", "Aetna", "80", "10"},
		})

	got := PaymentAverages(payments, DefaultColumns(), "MRI")
	assert.Equal(t, [][]string{
		{"Humana", "$310.00", "N/A"},
		{"Aetna", "$120.50", "30%"},
		{"Cigna", "N/A", "12%"},
	}, got.Rows)

	assert.Equal(t, []string{"CT", "MRI"}, PaymentProcedures(payments, DefaultColumns()))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, workbook.Save(path, doctors(), procedures()))

	r, err := Load(path, DefaultColumns())
	require.NoError(t, err)
	assert.Equal(t, "Bob Kay", r.TopDoctors(1).Get(0, "Referring Physician"))

	only := filepath.Join(t.TempDir(), "only.xlsx")
	require.NoError(t, workbook.Save(only, doctors()))
	_, err = Load(only, DefaultColumns())
	assert.True(t, errors.Is(err, errors.ErrFatalInput))
}

func TestRender(t *testing.T) {
	top := newTestRanker().TopDoctors(2)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, top, FormatTable))
	out := buf.String()
	assert.Contains(t, out, "Top Priority Doctors")
	assert.Contains(t, out, "Bob Kay")

	buf.Reset()
	require.NoError(t, Render(&buf, top, FormatJSON))
	var recs []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "Bob Kay", recs[0]["Referring Physician"])

	buf.Reset()
	require.NoError(t, Render(&buf, top, FormatYAML))
	assert.True(t, strings.Contains(buf.String(), "Referring Physician: Bob Kay"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
