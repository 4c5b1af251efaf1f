package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joshharrison/critpath/internal/calendar"
	"github.com/joshharrison/critpath/internal/config"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/graph"
	"github.com/joshharrison/critpath/internal/logging"
	"github.com/joshharrison/critpath/internal/projectfile"
	"github.com/joshharrison/critpath/internal/reporter"
	"github.com/joshharrison/critpath/internal/ui"
	"github.com/joshharrison/critpath/internal/watch"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagConfig      string
	flagStart       string
	flagDaysPerWeek int
	flagStrict      bool
	flagFloat       string
	flagJSON        bool
	flagLogLevel    string
	flagLogFormat   string
	flagNoColor     bool
	flagFilter      string
	flagWatch       bool
	flagFormat      string
)

// Resolved in the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger = zerolog.Nop()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "critpath",
		Short: "Critical path scheduling on a working-day calendar",
		Long: `Critpath reads a task graph from a JSON, YAML or HCL project file, runs the
critical path method over a 5, 6 or 7 day working week, and reports early and
late dates, float and the critical path.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintLogo(cmd.ErrOrStderr())
			_ = cmd.Help()
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ./critpath.yaml or ~/.config/critpath/critpath.yaml)")
	pf.StringVar(&flagStart, "start", "", "Project start date YYYY-MM-DD (overrides the project file)")
	pf.IntVar(&flagDaysPerWeek, "days-per-week", 0, "Working days per week: 5, 6 or 7 (overrides the project file)")
	pf.BoolVar(&flagStrict, "strict", false, "Reject dangling references, inconsistent edges and unknown calendars")
	pf.StringVar(&flagFloat, "float", "inclusive", "Float counting (inclusive, exclusive)")
	pf.BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "console", "Log format (console, json)")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(criticalCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(calendarCmd())

	return rootCmd
}

// setup resolves configuration and the logger for every command.
func setup(cmd *cobra.Command) error {
	opts := []config.Option{config.WithFlags(cmd.Flags())}
	if flagConfig != "" {
		opts = append(opts, config.WithFile(flagConfig))
	}

	c, err := config.Load(opts...)
	if err != nil {
		return err
	}
	cfg = c

	ui.SetNoColor(cfg.Log.NoColor)
	logger = logging.New(cfg.Log)
	if cfg.File != "" {
		logger.Debug().Str("file", cfg.File).Msg("loaded config")
	}
	return nil
}

// schedule is a loaded project with its computed schedule.
type schedule struct {
	project *projectfile.Project
	graph   *graph.TaskGraph
	result  *cpm.Result
}

func (s *schedule) reporter() *reporter.Reporter {
	return reporter.New(s.project.Name, s.graph, s.result)
}

// buildSchedule is shared logic for the schedule, critical and viz commands.
func buildSchedule(path string) (*schedule, error) {
	p, err := projectfile.Load(path)
	if err != nil {
		return nil, err
	}

	g, err := p.Graph()
	if err != nil {
		return nil, fmt.Errorf("build task graph: %w", err)
	}
	logger.Debug().Str("file", path).Int("tasks", g.TaskCount()).Msg("loaded project")

	// Apply filter if specified
	if flagFilter != "" {
		g, err = applyFilter(g, flagFilter)
		if err != nil {
			return nil, fmt.Errorf("apply filter: %w", err)
		}
	}

	opts, err := cfg.Options(p)
	if err != nil {
		return nil, err
	}
	opts.Logger = &logger

	result, err := cpm.Calculate(g.TaskList(), opts)
	switch {
	case errors.Is(err, cpm.ErrNoProjectStart):
		return nil, fmt.Errorf("%w: set start in the project file or pass --start", err)
	case errors.Is(err, cpm.ErrNoCalendar):
		return nil, fmt.Errorf("%w: set working_days_per_week in the project file or pass --days-per-week", err)
	case err != nil:
		return nil, fmt.Errorf("CPM analysis: %w", err)
	}

	if err := opts.Calendar.Validate(); err != nil && !opts.Strict {
		logger.Warn().Int("days_per_week", int(opts.Calendar)).Msg("unsupported calendar, treating every day as working")
	}

	return &schedule{project: p, graph: g, result: result}, nil
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule <file>",
		Short: "Compute and print the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := printSchedule(out, args[0]); err != nil {
				if !flagWatch {
					return err
				}
				logger.Error().Err(err).Msg("schedule failed")
			}
			if !flagWatch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := watch.New(args[0], logger)
			fmt.Fprintf(cmd.ErrOrStderr(), "👀 %s %s\n", ui.Dim("Watching"), ui.Bold(args[0]))
			return w.Run(ctx, func() error {
				fmt.Fprintln(out)
				return printSchedule(out, args[0])
			})
		},
	}

	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks (label=X)")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "Recompute whenever the project file changes")

	return cmd
}

func printSchedule(w io.Writer, path string) error {
	s, err := buildSchedule(path)
	if err != nil {
		return err
	}
	if flagJSON {
		data, err := s.reporter().JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	s.reporter().PrintSchedule(w)
	return nil
}

func criticalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "critical <file>",
		Short: "Print the critical path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildSchedule(args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), s.result.CriticalPath)
			}
			s.reporter().PrintCritical(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks (label=X)")

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a project file without scheduling it",
		Long: `Loads the project file and reports every problem strict scheduling would
reject: missing or duplicate IDs, negative durations, dangling references,
one-sided edges, unknown relation types, cycles and unsupported calendars.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			p, err := projectfile.Load(args[0])
			if err != nil {
				return err
			}
			g, err := p.Graph()
			if err != nil {
				return err
			}

			var problems []error
			if err := graph.Validate(g.TaskList()); err != nil {
				var ve *graph.ValidationError
				if errors.As(err, &ve) {
					problems = append(problems, ve.Problems...)
				} else {
					problems = append(problems, err)
				}
			}
			opts, err := cfg.Options(p)
			if err != nil {
				problems = append(problems, err)
			} else if opts.Calendar != 0 {
				if err := opts.Calendar.Validate(); err != nil {
					problems = append(problems, err)
				}
			}

			if flagJSON {
				msgs := make([]string, len(problems))
				for i, prob := range problems {
					msgs[i] = prob.Error()
				}
				if err := outputJSON(out, map[string]interface{}{
					"valid":    len(problems) == 0,
					"tasks":    g.TaskCount(),
					"problems": msgs,
				}); err != nil {
					return err
				}
			} else if len(problems) == 0 {
				fmt.Fprintf(out, "%s %s (%d tasks)\n", ui.Green("✓"), ui.Bold(args[0]), g.TaskCount())
			} else {
				fmt.Fprintf(out, "%s %s: %d problems\n", ui.Red("✗"), ui.Bold(args[0]), len(problems))
				for _, prob := range problems {
					fmt.Fprintf(out, "  %s %s\n", ui.Red("•"), prob)
				}
			}

			if len(problems) > 0 {
				return fmt.Errorf("%d problems found", len(problems))
			}
			return nil
		},
	}
}

func vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz <file>",
		Short: "Print the scheduled graph as ASCII waves or Graphviz DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildSchedule(args[0])
			if err != nil {
				return err
			}

			switch flagFormat {
			case "dot":
				s.reporter().PrintDOT(cmd.OutOrStdout())
			case "ascii":
				s.reporter().PrintWaves(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unsupported format: %s (use ascii or dot)", flagFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks (label=X)")

	return cmd
}

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Working-day calendar arithmetic",
		Long: `Exposes the working calendar used by the scheduler. The week length comes
from --days-per-week or the config file.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "is <date>",
		Short: "Report whether a date is a working day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := calendarPolicy()
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			working := policy.IsWorkingDay(d)
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), map[string]interface{}{"date": calendar.FormatDate(d), "working": working})
			}
			if working {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s is a working day\n", ui.Green("✓"), calendar.FormatDate(d))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s is not a working day\n", ui.Yellow("⊘"), calendar.FormatDate(d))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <date> <days>",
		Short: "Move a number of working days from a date (negative moves back)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := calendarPolicy()
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid day count: %w", err)
			}
			return printDate(cmd.OutOrStdout(), policy.AddWorkingDays(d, n))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "count <start> <end>",
		Short: "Count working days between two dates, both inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := calendarPolicy()
			if err != nil {
				return err
			}
			start, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			end, err := calendar.ParseDate(args[1])
			if err != nil {
				return err
			}
			n := policy.CountWorkingDays(start, end)
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), map[string]interface{}{"count": n})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "next <date>",
		Short: "First working day strictly after a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := calendarPolicy()
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			return printDate(cmd.OutOrStdout(), policy.NextWorkingDay(d))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prev <date>",
		Short: "Last working day strictly before a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := calendarPolicy()
			if err != nil {
				return err
			}
			d, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			return printDate(cmd.OutOrStdout(), policy.PreviousWorkingDay(d))
		},
	})

	return cmd
}

// calendarPolicy returns the configured week length. It is required here
// since there is no project file to fall back on.
func calendarPolicy() (calendar.Policy, error) {
	policy := calendar.Policy(cfg.Calendar.WorkingDaysPerWeek)
	if policy == 0 {
		return 0, fmt.Errorf("%w: pass --days-per-week", cpm.ErrNoCalendar)
	}
	if cfg.Schedule.Strict {
		if err := policy.Validate(); err != nil {
			return 0, err
		}
	}
	return policy, nil
}

// --- Output helpers ---

func outputJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printDate(w io.Writer, d time.Time) error {
	s := calendar.FormatDate(d)
	if flagJSON {
		return outputJSON(w, map[string]string{"date": s})
	}
	fmt.Fprintln(w, s)
	return nil
}

// applyFilter parses simple filter expressions and returns a filtered graph.
func applyFilter(g *graph.TaskGraph, filter string) (*graph.TaskGraph, error) {
	// Supported formats: "label=X", "id=X[,Y...]"
	if strings.HasPrefix(filter, "label=") {
		label := strings.TrimPrefix(filter, "label=")
		return g.Filter(func(t *graph.Task) bool {
			return t.HasLabel(label)
		})
	}
	if strings.HasPrefix(filter, "id=") {
		ids := map[string]bool{}
		for _, id := range strings.Split(strings.TrimPrefix(filter, "id="), ",") {
			ids[strings.TrimSpace(id)] = true
		}
		return g.Filter(func(t *graph.Task) bool {
			return ids[t.ID]
		})
	}
	return nil, fmt.Errorf("unsupported filter: %s (use label=X or id=X,Y)", filter)
}
