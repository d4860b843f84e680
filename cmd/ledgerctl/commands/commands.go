// Package commands holds the operator commands for the installment engine.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/segyhp/installment-engine/internal/app"
	"github.com/segyhp/installment-engine/internal/calendar"
	"github.com/segyhp/installment-engine/internal/config"
	"github.com/segyhp/installment-engine/internal/jalali"
	"github.com/segyhp/installment-engine/internal/logger"
	"github.com/segyhp/installment-engine/internal/migration"
	"github.com/segyhp/installment-engine/internal/schedule"
	"github.com/segyhp/installment-engine/internal/service"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// NewRootCommand assembles the ledgerctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the installment engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		NewMigrateCommand(),
		NewCalendarCommand(),
		NewConvertCommand(),
		NewScheduleCommand(),
		NewSweepCommand(),
		NewRemindCommand(),
	)
	return root
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Apply the baseline schema and evolutions, or report what has been applied",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply the baseline and pending evolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *sqlx.DB, log *logger.Logger) error {
				applied, err := migration.Migrate(cmd.Context(), db, log)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
					return nil
				}
				for _, id := range applied {
					fmt.Fprintln(cmd.OutOrStdout(), "applied", id)
				}
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the baseline version and applied evolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *sqlx.DB, _ *logger.Logger) error {
				version, dirty, err := migration.BaselineVersion(db)
				if err != nil {
					return err
				}
				ledger, err := migration.NewSQLLedger(cmd.Context(), db)
				if err != nil {
					return err
				}
				applied, err := ledger.Applied(cmd.Context())
				if err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), version, dirty, applied)
			})
		},
	})

	return migrateCmd
}

func printStatus(out io.Writer, version uint, dirty bool, applied []string) error {
	done := make(map[string]bool, len(applied))
	for _, id := range applied {
		done[id] = true
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "baseline\tv%d\tdirty=%t\n", version, dirty)
	for _, m := range migration.Evolutions() {
		state := "pending"
		if done[m.ID] {
			state = "applied"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, state, m.Description)
	}
	return w.Flush()
}

// NewCalendarCommand prints a Jalali month grid.
func NewCalendarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [year month]",
		Short: "Print a Jalali month, the current one by default",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var page calendar.Page
			switch len(args) {
			case 0:
				loc, err := time.LoadLocation(config.DefaultTimezone)
				if err != nil {
					return err
				}
				d := jalali.Today(loc)
				page = calendar.Page{Year: d.Year(), Month: d.Month()}
			case 2:
				if _, err := fmt.Sscanf(args[0]+" "+args[1], "%d %d", &page.Year, &page.Month); err != nil {
					return fmt.Errorf("year and month must be numbers: %w", err)
				}
			default:
				return fmt.Errorf("give both year and month, or neither")
			}

			g, err := page.Build()
			if err != nil {
				return err
			}
			return printGrid(cmd.OutOrStdout(), g)
		},
	}
}

func printGrid(out io.Writer, g calendar.Grid) error {
	fmt.Fprintln(out, g.Title())

	heads := make([]string, calendar.Columns)
	for i := range heads {
		heads[i] = jalali.WeekdayName(i)
	}
	fmt.Fprintln(out, strings.Join(heads, " | "))

	for r := 0; r < calendar.Rows; r++ {
		cells := make([]string, 0, calendar.Columns)
		for _, c := range g.Week(r) {
			if !c.Enabled {
				cells = append(cells, "  ")
				continue
			}
			cells = append(cells, fmt.Sprintf("%2d", c.Day))
		}
		fmt.Fprintln(out, strings.Join(cells, " "))
	}
	return nil
}

// NewConvertCommand converts a date between calendars.
func NewConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert DATE",
		Short: "Convert YYYY-MM-DD to Jalali or YYYY/MM/DD to Gregorian",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := service.ConvertDate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s %s\n", conv.Gregorian, conv.Jalali, conv.Weekday, conv.MonthName)
			return nil
		},
	}
}

// NewScheduleCommand previews a schedule without storing anything.
func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Preview the installments for an amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			totalRaw, _ := cmd.Flags().GetString("total")
			downRaw, _ := cmd.Flags().GetString("down")
			count, _ := cmd.Flags().GetInt("count")
			start, _ := cmd.Flags().GetString("start")
			interval, _ := cmd.Flags().GetInt("interval")
			months, _ := cmd.Flags().GetInt("first-due-months")

			total, err := utils.DecimalFromString(totalRaw)
			if err != nil {
				return fmt.Errorf("invalid total: %w", err)
			}
			down, err := utils.DecimalFromString(downRaw)
			if err != nil {
				return fmt.Errorf("invalid down payment: %w", err)
			}

			d, err := jalali.Parse(start)
			if err != nil {
				return err
			}
			startDate, err := jalali.ToGregorian(d)
			if err != nil {
				return err
			}

			financed, err := schedule.Financed(total, down)
			if err != nil {
				return err
			}
			firstDue, err := schedule.FirstDue(startDate, months)
			if err != nil {
				return err
			}
			entries, err := schedule.Generate(financed, count, firstDue, interval)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			return printSchedule(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().String("total", "", "Policy amount (required)")
	cmd.Flags().String("down", "0", "Down payment")
	cmd.Flags().Int("count", 1, "Number of installments")
	cmd.Flags().String("start", "", "Jalali start date YYYY/MM/DD (required)")
	cmd.Flags().Int("interval", 30, "Days between installments")
	cmd.Flags().Int("first-due-months", 1, "Months from start to the first installment")
	cmd.Flags().Bool("json", false, "Print JSON")
	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func printSchedule(out io.Writer, entries schedule.Schedule) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tJalali\tGregorian\tAmount\t")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n",
			e.Sequence,
			jalali.Format(e.DueDate),
			e.DueDate.Format("2006-01-02"),
			utils.FormatAmount(e.Amount, 0),
		)
	}
	fmt.Fprintf(w, "\t\tTotal\t%s\t\n", utils.FormatAmount(entries.Total(), 0))
	return w.Flush()
}

// NewSweepCommand runs one status sweep against the configured database.
func NewSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reclassify open installments now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				result, err := a.Service.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "evaluated=%d changed=%d conflicts=%d anomalies=%d\n",
					result.Evaluated, result.Changed, result.Conflicts, result.Anomalies)
				return nil
			})
		},
	}
}

// NewRemindCommand delivers due reminders once.
func NewRemindCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Deliver reminders that are due",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				stats, err := a.Service.ProcessReminders(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "total=%d sent=%d failed=%d spawned=%d skipped=%d\n",
					stats.Total, stats.Sent, stats.Failed, stats.Spawned, stats.Skipped)
				return nil
			})
		},
	}
}

func loadEnv() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func withDB(ctx context.Context, fn func(*sqlx.DB, *logger.Logger) error) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}
	defer log.Close()

	db, err := sqlx.ConnectContext(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(db, log)
}

func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}
	defer log.Close()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}
