package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Honestpuck/jss-tools/internal/config"
	"github.com/Honestpuck/jss-tools/internal/metrics"
	"github.com/Honestpuck/jss-tools/pkg/cache"
	"github.com/Honestpuck/jss-tools/pkg/compliance"
	"github.com/Honestpuck/jss-tools/pkg/jss"
	"github.com/Honestpuck/jss-tools/pkg/report"
	"github.com/Honestpuck/jss-tools/pkg/server"
	"github.com/Honestpuck/jss-tools/pkg/service"
	"github.com/kumarabd/gokit/logger"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	out      io.Writer
	cfg      *config.Config
	svc      *service.Handler
	store    *report.Store
	url      string
	user     string
	password string
	insecure bool
	db       string
	policy   string
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "jsstool",
		Short:         "Read and edit JSS records as normalized JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.store != nil {
				return a.store.Close()
			}
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.url, "url", "", "JSS URL (default $"+config.EnvURL+")")
	flags.StringVar(&a.user, "user", "", "API user (default $"+config.EnvUser+")")
	flags.StringVar(&a.password, "password", "", "API password (default $"+config.EnvPassword+")")
	flags.BoolVar(&a.insecure, "insecure", false, "skip TLS certificate verification")
	flags.StringVar(&a.db, "db", "", "findings database (default $"+config.EnvReport+" or jss-tools.db)")
	flags.StringVar(&a.policy, "policy", "", "compliance policy YAML file (default $"+config.EnvPolicy+")")

	root.AddCommand(
		a.getCmd(),
		a.setCmd(),
		a.attributesCmd(),
		a.appsCmd(),
		a.groupsCmd(),
		a.complianceCmd(),
		a.historyCmd(),
		a.tokenCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	a.cfg = cfg
	switch cmd.Name() {
	case "help", "completion", "token":
		return nil
	}
	if a.url != "" {
		cfg.JSS.URL = a.url
	}
	if a.user != "" {
		cfg.JSS.Username = a.user
	}
	if a.password != "" {
		cfg.JSS.Password = a.password
	}
	if a.insecure {
		cfg.JSS.VerifySSL = false
	}
	if a.db != "" {
		cfg.Report.Path = a.db
	}
	if a.policy != "" {
		if err := config.LoadPolicy(cfg, a.policy); err != nil {
			return err
		}
	}

	log, err := logger.New(config.ApplicationName, logger.Options{Format: logger.JSONLogFormat})
	if err != nil {
		return err
	}
	m, err := metrics.New(config.ApplicationName)
	if err != nil {
		return err
	}
	client, err := jss.NewClient(cfg.JSS, log, m)
	if err != nil {
		return err
	}
	c, err := cache.New(cfg.Cache, m)
	if err != nil {
		return err
	}

	var reports service.Reporter
	if needsStore(cmd) && cfg.Report.Path != "" {
		a.store, err = report.Open(cmd.Context(), cfg.Report.Path)
		if err != nil {
			return err
		}
		reports = a.store
	}

	a.svc, err = service.New(log, m, client, c, reports, cfg.Service)
	return err
}

// needsStore reports whether cmd reads or writes the findings history.
func needsStore(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "history":
		return true
	case "compliance":
		store, _ := cmd.Flags().GetBool("store")
		return store
	}
	return false
}

func (a *app) printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

// parseAssignments splits key=value arguments. Values may contain "=".
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out[key] = value
	}
	return out, nil
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Print a normalized record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.svc.Record(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.printJSON(n)
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <resource> <id> key=value...",
		Short: "Change fields of a record and save it",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			n, err := a.svc.Update(cmd.Context(), args[0], args[1], changes)
			if err != nil {
				return err
			}
			return a.printJSON(n)
		},
	}
}

func (a *app) attributesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attributes <resource> <id> [name=value...]",
		Short: "Print or change extension attributes",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				attrs, err := a.svc.Attributes(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return a.printJSON(attrs)
			}
			changes, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			attrs, err := a.svc.UpdateAttributes(cmd.Context(), args[0], args[1], changes)
			if err != nil {
				return err
			}
			return a.printJSON(attrs)
		},
	}
}

func (a *app) appsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "apps <computer id>",
		Short: "Print installed applications and versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ignore []string
			if all {
				ignore = []string{}
			}
			apps, err := a.svc.Applications(cmd.Context(), args[0], ignore)
			if err != nil {
				return err
			}
			return a.printJSON(apps)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include applications shipped with macOS")
	return cmd
}

func (a *app) groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups <computer id>",
		Short: "Print the computer groups a computer belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.svc.Groups(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printJSON(groups)
		},
	}
}

func (a *app) complianceCmd() *cobra.Command {
	var store bool
	cmd := &cobra.Command{
		Use:   "compliance [computer id]",
		Short: "Print a report line per compliance finding",
		Long: "Checks one computer, or every computer when no id is given. " +
			"Each finding prints as machine, name, email, reason and os-build separated by tabs.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var findings []compliance.Finding
			if len(args) == 1 {
				var err error
				if findings, err = a.svc.Compliance(cmd.Context(), args[0]); err != nil {
					return err
				}
				if store && a.store != nil {
					if err := a.store.Save(cmd.Context(), findings); err != nil {
						return err
					}
				}
			} else {
				// Sweep stores findings itself when a store is open.
				res, err := a.svc.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				findings = res.Findings
				for id, msg := range res.Failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "computer %s: %s\n", id, msg)
				}
			}
			for _, f := range findings {
				if _, err := fmt.Fprintln(a.out, f.Line()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&store, "store", false, "save findings to the history database")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print stored compliance findings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			findings, err := a.svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, f := range findings {
				if _, err := fmt.Fprintf(a.out, "%s\t%s\n", f.CheckedAt.Format("2006-01-02 15:04:05"), f.Line()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of findings")
	return cmd
}

func (a *app) tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Long:  "Signs a token with $" + config.EnvAPISecret + ", the secret the service checks.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := a.cfg.Server.HTTP.JWTSecret
			if secret == "" {
				return fmt.Errorf("%s is not set", config.EnvAPISecret)
			}
			token, err := server.IssueToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "jsstool", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
