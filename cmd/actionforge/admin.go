package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Strob0t/ActionForge/internal/adapter/postgres"
	"github.com/Strob0t/ActionForge/internal/config"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/port/auditlog"
)

// runAdmin dispatches admin subcommands (list-agents, list-audit, migrate).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "list-agents":
		return runAdminListAgents(args[1:])
	case "list-audit":
		return runAdminListAudit(args[1:])
	case "migrate":
		return runAdminMigrate(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: actionforge admin <command> [options]

Commands:
  list-agents   List the agent roster
  list-audit    List the newest audit records (postgres store)
  migrate       Apply pending database migrations
  help          Show this help message

Examples:
  actionforge admin list-agents
  actionforge admin list-audit --limit 20
  actionforge admin migrate
`)
}

func runAdminListAgents(args []string) error {
	fs := flag.NewFlagSet("list-agents", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	profiles := agent.DefaultRegistry().Profiles()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tROLE\tPERSONA\tEVENTS")
	for i := range profiles {
		p := &profiles[i]
		events := make([]string, len(p.Supports))
		for j, t := range p.Supports {
			events[j] = string(t)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			p.ID, p.DisplayName, p.Role, p.Persona, strings.Join(events, ","))
	}
	return w.Flush()
}

func runAdminListAudit(args []string) error {
	fs := flag.NewFlagSet("list-audit", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "maximum number of records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit < 0 {
		return fmt.Errorf("--limit must be non-negative")
	}

	log, cleanup, err := loadAdminAudit()
	if err != nil {
		return err
	}
	defer cleanup()

	recs, err := log.List(context.Background(), *limit)
	if err != nil {
		return fmt.Errorf("list audit: %w", err)
	}
	if len(recs) == 0 {
		fmt.Println("No audit records found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tACTOR\tTIMESTAMP")
	for i := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			recs[i].ID, recs[i].Type, recs[i].Actor, recs[i].Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func runAdminMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := postgres.RunMigrations(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	if st.From == st.To {
		fmt.Fprintf(os.Stderr, "Schema up to date (version %d).\n", st.To)
		return nil
	}
	fmt.Fprintf(os.Stderr, "Migrated schema from version %d to %d.\n", st.From, st.To)
	return nil
}

func loadAdminAudit() (auditlog.Log, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Backend != config.StorePostgres {
		return nil, nil, fmt.Errorf("list-audit needs the postgres store (ACTIONFORGE_STORE=postgres)")
	}

	pool, err := postgres.NewPool(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return postgres.NewAuditStore(pool), pool.Close, nil
}
