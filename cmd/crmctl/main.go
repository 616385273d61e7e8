// crmctl 运维命令行：迁移、联系人导入导出、线索打分
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/common/database"
	"github.com/Pristinepartners/pristine-crm-sub000/common/logger"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/config"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/migrations"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/service"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/store"
)

// app 命令共享的依赖；测试中替换 openServices 与 migrate
type app struct {
	openServices func(ctx context.Context) (*service.Services, func(), error)
	migrate      func(ctx context.Context, script string) (int, error)
}

func newApp(cfg *config.Config, log *zap.Logger) *app {
	return &app{
		openServices: func(ctx context.Context) (*service.Services, func(), error) {
			db, err := database.NewPostgresDB(&cfg.Database)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect database: %w", err)
			}
			// CLI 不发布事件，导入预览也不跨进程
			svcs := service.NewServices(repository.NewPostgresRepos(db), store.NewMemoryKV(), events.Nop{}, cfg.PreviewTTL(), log)
			return svcs, func() { _ = database.Close(db) }, nil
		},
		migrate: func(ctx context.Context, script string) (int, error) {
			db, err := database.NewPostgresDB(&cfg.Database)
			if err != nil {
				return 0, fmt.Errorf("failed to connect database: %w", err)
			}
			defer database.Close(db)
			return migrations.Apply(ctx, db, script)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "crmctl",
		Short:         "Pristine CRM maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newContactsCmd(a))
	root.AddCommand(newScoreCmd(a))
	return root
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [file.sql]",
		Short: "Apply the built-in schema or a migration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script := migrations.Schema()
			if len(args) == 1 {
				b, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read migration file: %w", err)
				}
				script = string(b)
			}
			n, err := a.migrate(cmd.Context(), script)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements\n", n)
			return nil
		},
	}
}

func newScoreCmd(a *app) *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "score <contact-id>",
		Short: "Compute the lead score of a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, closeFn, err := a.openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			res, err := svcs.Contacts.GetLeadScore(cmd.Context(), tenantID, args[0])
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

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "crmctl")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := newRootCmd(newApp(cfg, log)).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
