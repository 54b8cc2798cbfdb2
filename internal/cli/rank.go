package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/rank"
	"github.com/ppiankov/refmatch/internal/table"
	"github.com/ppiankov/refmatch/internal/workbook"
)

var (
	rankIn       string
	rankFormat   string
	topLimit     int
	paymentsPath string
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Prioritization queries over a reconciled workbook",
	Long: `Rank answers read-only questions over the Doctor_Matching and
Procedure_Prioritization sheets. Blank cells are treated as no data.

Example:
  refmatch rank top --limit 20
  refmatch rank procedure MRI
  refmatch rank specialty Cardiology -o json
  refmatch rank profile "Jane Doe"
  refmatch rank payments MRI --payments Payments.xlsx`,
}

var rankTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Top doctors by prioritization index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRanker(cmd, func(r *rank.Ranker, format rank.Format) error {
			return rank.Render(cmd.OutOrStdout(), r.TopDoctors(topLimit), format)
		})
	},
}

var rankProcedureCmd = &cobra.Command{
	Use:   "procedure [name]",
	Short: "Doctors ranked for one procedure (lists procedures without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRanker(cmd, func(r *rank.Ranker, format rank.Format) error {
			if len(args) == 0 {
				return renderList(cmd.OutOrStdout(), "Procedures", r.Procedures(), format)
			}
			return rank.Render(cmd.OutOrStdout(), r.ProcedureRanking(args[0]), format)
		})
	},
}

var rankSpecialtyCmd = &cobra.Command{
	Use:   "specialty [name]",
	Short: "Doctors ranked within one specialty (lists specialties without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRanker(cmd, func(r *rank.Ranker, format rank.Format) error {
			if len(args) == 0 {
				return renderList(cmd.OutOrStdout(), "Specialties", r.Specialties(), format)
			}
			return rank.Render(cmd.OutOrStdout(), r.SpecialtyRanking(args[0]), format)
		})
	},
}

var rankProfileCmd = &cobra.Command{
	Use:   "profile [name]",
	Short: "Profile of one doctor (lists doctors without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRanker(cmd, func(r *rank.Ranker, format rank.Format) error {
			if len(args) == 0 {
				return renderList(cmd.OutOrStdout(), "Physicians", r.Physicians(), format)
			}
			p, err := r.Profile(args[0])
			if err != nil {
				return err
			}
			return rank.RenderValue(cmd.OutOrStdout(), p, format)
		})
	},
}

var rankPaymentsCmd = &cobra.Command{
	Use:   "payments [procedure]",
	Short: "Average insurance payments for one procedure",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := rank.ParseFormat(rankFormat)
		if err != nil {
			return err
		}
		t, err := workbook.ReadSheet(paymentsPath, rank.PaymentsSheet)
		if err != nil {
			return err
		}
		cols := rank.DefaultColumns()
		if len(args) == 0 {
			return renderList(cmd.OutOrStdout(), "Procedures", rank.PaymentProcedures(t, cols), format)
		}
		return rank.Render(cmd.OutOrStdout(), rank.PaymentAverages(t, cols, args[0]), format)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.AddCommand(rankTopCmd, rankProcedureCmd, rankSpecialtyCmd, rankProfileCmd, rankPaymentsCmd)

	rankCmd.PersistentFlags().StringVar(&rankIn, "in", model.DefaultGeocodeOutput, "reconciled workbook")
	rankCmd.PersistentFlags().StringVarP(&rankFormat, "output", "o", "table", "output format (table, json, yaml)")
	rankTopCmd.Flags().IntVarP(&topLimit, "limit", "n", 10, "number of doctors")
	rankPaymentsCmd.Flags().StringVar(&paymentsPath, "payments", "", "workbook with the \""+rank.PaymentsSheet+"\" sheet")
	_ = rankPaymentsCmd.MarkFlagRequired("payments")
}

func withRanker(cmd *cobra.Command, fn func(*rank.Ranker, rank.Format) error) error {
	format, err := rank.ParseFormat(rankFormat)
	if err != nil {
		return err
	}
	r, err := rank.Load(rankIn, rank.DefaultColumns())
	if err != nil {
		return err
	}
	logger.Debug().Str("in", rankIn).Str("command", cmd.Name()).Msg("Workbook loaded")
	return fn(r, format)
}

func renderList(w io.Writer, name string, values []string, format rank.Format) error {
	if format != rank.FormatTable {
		return rank.RenderValue(w, values, format)
	}
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "No %s found\n", name)
		return err
	}
	return rank.Render(w, table.New(name, []string{name}, rows), format)
}
