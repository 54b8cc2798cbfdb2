// Package rank answers read-only prioritization queries over a reconciled
// workbook. Blank cells are treated as no data, never as errors.
package rank

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/refmatch/internal/errors"
	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/table"
	"github.com/ppiankov/refmatch/internal/workbook"
)

// ErrDoctorNotFound is returned by Profile for an unknown physician
var ErrDoctorNotFound = errors.New("doctor not found")

// Columns names the columns the queries read
type Columns struct {
	Physician      string `yaml:"physician" mapstructure:"physician"`
	Index          string `yaml:"index" mapstructure:"index"`
	ProcedureIndex string `yaml:"procedure_index" mapstructure:"procedure_index"`
	Procedure      string `yaml:"procedure" mapstructure:"procedure"`
	Specialty      string `yaml:"specialty" mapstructure:"specialty"`
	Insurance      string `yaml:"insurance" mapstructure:"insurance"`
	Referrals      string `yaml:"referrals" mapstructure:"referrals"`
	Contact        string `yaml:"contact" mapstructure:"contact"`
	Phone          string `yaml:"phone" mapstructure:"phone"`
	Growth         string `yaml:"growth" mapstructure:"growth"`
}

// DefaultColumns returns the column names written by reconcile and geocode
func DefaultColumns() Columns {
	return Columns{
		Physician:      model.ColumnReferringName,
		Index:          "Prioritization Index",
		ProcedureIndex: "Prioritization Index Procedure",
		Procedure:      "Procedure",
		Specialty:      "Specialty",
		Insurance:      "Insurance",
		Referrals:      "Referrals",
		Contact:        "Luis, Gerardo o Alex",
		Phone:          "Phone Number",
		Growth:         "CAGR",
	}
}

// Ranker holds the matching and procedure sheets
type Ranker struct {
	doctors    *table.Table
	procedures *table.Table
	cols       Columns
}

// NewRanker creates a ranker over already loaded sheets
func NewRanker(doctors, procedures *table.Table, cols Columns) *Ranker {
	return &Ranker{doctors: doctors, procedures: procedures, cols: cols}
}

// Load reads both sheets from a reconciled workbook
func Load(path string, cols Columns) (*Ranker, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = wb.Close() }()

	doctors, err := wb.Sheet(model.SheetDoctorMatching)
	if err != nil {
		return nil, err
	}
	procedures, err := wb.Sheet(model.SheetProcedurePriority)
	if err != nil {
		return nil, err
	}
	return NewRanker(doctors, procedures, cols), nil
}

// number parses a cell, NaN when blank or not numeric
func number(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// sortDesc orders rows by a numeric column, highest first, with
// non-numeric cells last. Equal values keep their sheet order.
func sortDesc(t *table.Table, rows []int, column string) []int {
	out := append([]int(nil), rows...)
	sort.SliceStable(out, func(a, b int) bool {
		x, y := number(t.Get(out[a], column)), number(t.Get(out[b], column))
		if math.IsNaN(y) {
			return !math.IsNaN(x)
		}
		if math.IsNaN(x) {
			return false
		}
		return x > y
	})
	return out
}

// dedupe keeps the first row per value of column
func dedupe(t *table.Table, rows []int, column string) []int {
	seen := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		k := t.Get(r, column)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

func allRows(t *table.Table) []int {
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func contactCell(v string) string {
	if strings.TrimSpace(v) == "" {
		return "NO"
	}
	return "YES, " + v
}

func (r *Ranker) doctorHeaders() []string {
	return []string{"Rank", r.cols.Physician, r.cols.Specialty, r.cols.Insurance, r.cols.Referrals, r.cols.Contact}
}

func (r *Ranker) doctorTable(name string, rows []int) *table.Table {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = []string{
			strconv.Itoa(i + 1),
			r.doctors.Get(row, r.cols.Physician),
			r.doctors.Get(row, r.cols.Specialty),
			r.doctors.Get(row, r.cols.Insurance),
			r.doctors.Get(row, r.cols.Referrals),
			contactCell(r.doctors.Get(row, r.cols.Contact)),
		}
	}
	return table.New(name, r.doctorHeaders(), out)
}

// TopDoctors ranks physicians by prioritization index, one row each, and
// returns at most n. n <= 0 returns all.
func (r *Ranker) TopDoctors(n int) *table.Table {
	rows := dedupe(r.doctors, sortDesc(r.doctors, allRows(r.doctors), r.cols.Index), r.cols.Physician)
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return r.doctorTable("Top Priority Doctors", rows)
}

// SpecialtyRanking ranks the physicians of one specialty
func (r *Ranker) SpecialtyRanking(specialty string) *table.Table {
	var rows []int
	for i := range r.doctors.Rows {
		if r.doctors.Get(i, r.cols.Specialty) == specialty {
			rows = append(rows, i)
		}
	}
	rows = dedupe(r.doctors, sortDesc(r.doctors, rows, r.cols.Index), r.cols.Physician)
	return r.doctorTable("Doctors Ranked by Specialty: "+specialty, rows)
}

// procedureRows returns rows of one procedure with a numeric index, best first
func (r *Ranker) procedureRows(procedure string) []int {
	var rows []int
	for i := range r.procedures.Rows {
		if r.procedures.Get(i, r.cols.Procedure) != procedure {
			continue
		}
		if math.IsNaN(number(r.procedures.Get(i, r.cols.ProcedureIndex))) {
			continue
		}
		rows = append(rows, i)
	}
	return sortDesc(r.procedures, rows, r.cols.ProcedureIndex)
}

// contacts maps each physician to the contact cell of their first row
func (r *Ranker) contacts() map[string]string {
	out := make(map[string]string)
	for i := range r.doctors.Rows {
		name := r.doctors.Get(i, r.cols.Physician)
		if _, ok := out[name]; !ok {
			out[name] = r.doctors.Get(i, r.cols.Contact)
		}
	}
	return out
}

// ProcedureRanking ranks physicians for one procedure
func (r *Ranker) ProcedureRanking(procedure string) *table.Table {
	rows := dedupe(r.procedures, r.procedureRows(procedure), r.cols.Physician)
	contacts := r.contacts()

	out := make([][]string, len(rows))
	for i, row := range rows {
		name := r.procedures.Get(row, r.cols.Physician)
		out[i] = []string{
			strconv.Itoa(i + 1),
			name,
			r.procedures.Get(row, r.cols.Procedure),
			r.procedures.Get(row, r.cols.Referrals),
			contactCell(contacts[name]),
		}
	}
	headers := []string{"Rank", r.cols.Physician, r.cols.Procedure, r.cols.Referrals, r.cols.Contact}
	return table.New("Procedure Ranking: "+procedure, headers, out)
}

func unique(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Procedures lists procedure names in sheet order
func (r *Ranker) Procedures() []string {
	return unique(r.procedures.Column(r.cols.Procedure))
}

// Specialties lists specialties in sheet order
func (r *Ranker) Specialties() []string {
	return unique(r.doctors.Column(r.cols.Specialty))
}

// Physicians lists physician names in sheet order
func (r *Ranker) Physicians() []string {
	return unique(r.doctors.Column(r.cols.Physician))
}

// ProcedureRank is a physician's position for one procedure
type ProcedureRank struct {
	Procedure string `json:"procedure" yaml:"procedure"`
	Rank      int    `json:"rank" yaml:"rank"`
	Total     int    `json:"total" yaml:"total"`
}

// Location is one distinct address row for a physician
type Location struct {
	Insurance string `json:"insurance,omitempty" yaml:"insurance,omitempty"`
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Latitude  string `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty" yaml:"longitude,omitempty"`
}

// Profile summarizes one physician. Empty fields mean no data.
type Profile struct {
	Name         string          `json:"name" yaml:"name"`
	Rank         int             `json:"rank" yaml:"rank"`
	Total        int             `json:"total" yaml:"total"`
	Specialty    string          `json:"specialty,omitempty" yaml:"specialty,omitempty"`
	Insurances   []string        `json:"insurances,omitempty" yaml:"insurances,omitempty"`
	Contact      string          `json:"contact" yaml:"contact"`
	Procedures   []ProcedureRank `json:"procedures,omitempty" yaml:"procedures,omitempty"`
	MaxReferrals string          `json:"max_referrals,omitempty" yaml:"max_referrals,omitempty"`
	Growth       string          `json:"growth,omitempty" yaml:"growth,omitempty"`
	Locations    []Location      `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// Profile looks up one physician by exact name
func (r *Ranker) Profile(name string) (*Profile, error) {
	var rows []int
	for i := range r.doctors.Rows {
		if r.doctors.Get(i, r.cols.Physician) == name {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrDoctorNotFound, name)
	}
	first := rows[0]

	p := &Profile{
		Name:      name,
		Total:     r.doctors.Len(),
		Specialty: r.doctors.Get(first, r.cols.Specialty),
		Contact:   contactCell(r.doctors.Get(first, r.cols.Contact)),
	}

	for pos, row := range sortDesc(r.doctors, allRows(r.doctors), r.cols.Index) {
		if r.doctors.Get(row, r.cols.Physician) == name {
			p.Rank = pos + 1
			break
		}
	}

	var insurances []string
	maxReferrals := math.NaN()
	for _, row := range rows {
		insurances = append(insurances, r.doctors.Get(row, r.cols.Insurance))
		if v := number(r.doctors.Get(row, r.cols.Referrals)); !math.IsNaN(v) && (math.IsNaN(maxReferrals) || v > maxReferrals) {
			maxReferrals = v
		}
	}
	p.Insurances = unique(insurances)
	if !math.IsNaN(maxReferrals) {
		p.MaxReferrals = strconv.FormatFloat(maxReferrals, 'f', -1, 64)
	}
	if g := number(r.doctors.Get(first, r.cols.Growth)); !math.IsNaN(g) {
		p.Growth = fmt.Sprintf("%.2f%%", g*100)
	}

	p.Procedures = r.procedureRanks(name)
	p.Locations = r.locations(rows)
	return p, nil
}

func (r *Ranker) procedureRanks(name string) []ProcedureRank {
	var out []ProcedureRank
	done := make(map[string]bool)
	for i := range r.procedures.Rows {
		if r.procedures.Get(i, r.cols.Physician) != name {
			continue
		}
		proc := r.procedures.Get(i, r.cols.Procedure)
		if done[proc] {
			continue
		}
		ranked := r.procedureRows(proc)
		for pos, row := range ranked {
			if r.procedures.Get(row, r.cols.Physician) == name {
				out = append(out, ProcedureRank{Procedure: proc, Rank: pos + 1, Total: len(ranked)})
				done[proc] = true
				break
			}
		}
	}
	return out
}

func (r *Ranker) locations(rows []int) []Location {
	var out []Location
	seen := make(map[Location]bool)
	for _, row := range rows {
		loc := Location{
			Insurance: r.doctors.Get(row, r.cols.Insurance),
			Address:   r.doctors.Get(row, model.ColumnAddress),
			Phone:     r.doctors.Get(row, r.cols.Phone),
			Latitude:  r.doctors.Get(row, model.ColumnLatitude),
			Longitude: r.doctors.Get(row, model.ColumnLongitude),
		}
		if loc == (Location{}) || seen[loc] {
			continue
		}
		seen[loc] = true
		out = append(out, loc)
	}
	return out
}
