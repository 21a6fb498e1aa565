package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dealflow/dealflow/internal/export"
	"github.com/dealflow/dealflow/internal/services"
	"github.com/dealflow/dealflow/internal/storage"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write proposal reports to disk",
	}
	cmd.AddCommand(exportXLSXCmd(), exportPDFCmd())
	return cmd
}

func exportXLSXCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Export every proposal to a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			all, err := services.NewProposalService(d).All(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" {
				out = export.DefaultXLSXPath(cfg.App.ReportsDir, time.Now())
			}
			if err := export.SaveXLSX(out, all); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d proposals to %s\n", len(all), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default REPORTS_DIR/propostas_<timestamp>.xlsx)")
	return cmd
}

func exportPDFCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "pdf ID",
		Short: "Render one proposal as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid proposal id %q", args[0])
			}
			d, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			p, err := services.NewProposalService(d).Get(ctx, uint(id))
			if errors.Is(err, services.ErrNotFound) {
				return fmt.Errorf("proposal %d not found", id)
			}
			if err != nil {
				return err
			}

			var logo []byte
			if p.Template != nil && p.Template.HasLogo() {
				store, err := storage.New(ctx, cfg.Storage)
				if err == nil {
					logo, err = store.Get(ctx, p.Template.LogoRef)
				}
				if err != nil {
					log.Warn("logo unavailable, rendering without it", zap.String("ref", p.Template.LogoRef), zap.Error(err))
					logo = nil
				}
			}
			body, err := export.ProposalPDF(p, p.Template, logo)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(cfg.App.ReportsDir, export.PDFFilename(p.ID))
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default REPORTS_DIR/proposta_<id>.pdf)")
	return cmd
}
