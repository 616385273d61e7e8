package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
)

func newContactsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Import or export contacts",
	}
	cmd.AddCommand(newContactsExportCmd(a))
	cmd.AddCommand(newContactsImportCmd(a))
	return cmd
}

func newContactsExportCmd(a *app) *cobra.Command {
	var (
		tenantID string
		format   string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all contacts of a tenant as csv or xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, closeFn, err := a.openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			file, err := svcs.Contacts.ExportContacts(cmd.Context(), tenantID, format, repository.ContactsFilter{})
			if err != nil {
				return err
			}
			// 未指定 --out 时写 stdout
			if out == "" {
				_, err = cmd.OutOrStdout().Write(file.Data)
				return err
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d contacts to %s\n", file.Count, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&format, "format", service.FormatCSV, "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newContactsImportCmd(a *app) *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import contacts from a csv or xlsx file using automatic column mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			svcs, closeFn, err := a.openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svcs.Contacts.ImportFile(cmd.Context(), tenantID, filepath.Base(args[0]), data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
