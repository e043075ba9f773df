package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/shlex"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/amarbel-llc/purse-first/libs/go-mcp/command"

	"github.com/amarbel-llc/extproc/internal/config"
	"github.com/amarbel-llc/extproc/internal/config/profile"
	"github.com/amarbel-llc/extproc/internal/runner"
	"github.com/amarbel-llc/extproc/internal/shell"
)

func buildApp() *command.App {
	app := command.NewApp("extproc", "Run external programs and talk to their streams")
	app.Description.Long = "extproc launches external programs with configurable stream routing, captures their output and exit status, and bridges line-oriented sessions."
	app.Version = version

	addCLICommands(app)

	return app
}

var invocationParams = []command.Param{
	{Name: "command", Short: 'c', Type: command.String, Description: "Program to run"},
	{Name: "args", Short: 'a', Type: command.Array, Description: "Arguments, each passed verbatim"},
	{Name: "line", Short: 'l', Type: command.String, Description: "Command line split into words with shell quoting rules"},
}

type invocation struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Line    string   `json:"line"`
}

// resolve returns the program and its arguments, splitting Line when no
// Command is given.
func (inv invocation) resolve() (string, []string, error) {
	if inv.Command != "" {
		if inv.Line != "" {
			return "", nil, fmt.Errorf("command and line are mutually exclusive")
		}
		return inv.Command, inv.Args, nil
	}

	if inv.Line == "" {
		return "", nil, errNoCommand
	}
	if len(inv.Args) > 0 {
		return "", nil, fmt.Errorf("args cannot be combined with line")
	}

	words, err := shlex.Split(inv.Line)
	if err != nil {
		return "", nil, fmt.Errorf("splitting line: %w", err)
	}
	if len(words) == 0 {
		return "", nil, fmt.Errorf("line contains no command")
	}
	return words[0], words[1:], nil
}

func addCLICommands(app *command.App) {
	app.AddCommand(&command.Command{
		Name: "init",
		Description: command.Description{
			Short: "Initialize the extproc config directory",
			Long: `Create the extproc config directory with a default config.toml and an
example profile in profiles/.

With --force, overwrites existing files.`,
		},
		Params: []command.Param{
			{Name: "force", Type: command.Bool, Description: "Overwrite existing config files"},
		},
		RunCLI: func(ctx context.Context, args json.RawMessage) error {
			var p struct {
				Force bool `json:"force"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return fmt.Errorf("invalid arguments: %w", err)
			}
			return runInit(os.Stdout, p.Force)
		},
	})

	app.AddCommand(&command.Command{
		Name: "run",
		Description: command.Description{
			Short: "Run a command and report its output and exit status",
			Long: `Run a command to completion. Stream routing comes from the first profile
whose match globs cover the command, or else from --capture.

  extproc run --line "grep -r 'TODO:' ."
  extproc run --command ls --args / --format json`,
		},
		Params: append(append([]command.Param{}, invocationParams...),
			command.Param{Name: "format", Short: 'f', Type: command.String, Description: "Result format: text, json or yaml", Default: "text"},
			command.Param{Name: "capture", Type: command.String, Description: "Streams to capture: both, stdout or none", Default: "both"},
			command.Param{Name: "dir", Short: 'd', Type: command.String, Description: "Working directory"},
		),
		RunCLI: func(ctx context.Context, args json.RawMessage) error {
			var p struct {
				invocation
				Format  string `json:"format"`
				Capture string `json:"capture"`
				Dir     string `json:"dir"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return fmt.Errorf("invalid arguments: %w", err)
			}
			return runCommand(ctx, p.invocation, p.Format, p.Capture, p.Dir)
		},
	})

	app.AddCommand(&command.Command{
		Name: "interactive",
		Description: command.Description{
			Short: "Run a command attached to this terminal",
			Long:  "Run a command with stdin, stdout and stderr all inherited from extproc, and exit with its status.",
		},
		Params: invocationParams,
		RunCLI: func(ctx context.Context, args json.RawMessage) error {
			var p invocation
			if err := json.Unmarshal(args, &p); err != nil {
				return fmt.Errorf("invalid arguments: %w", err)
			}
			return runInteractive(ctx, p)
		},
	})

	app.AddCommand(&command.Command{
		Name: "session",
		Description: command.Description{
			Short: "Bridge lines between this terminal and a command",
			Long: `Start a command with its streams on pipes. Each line read from stdin is
written to the command; replies that arrive within --timeout are
printed, with stderr lines prefixed by "! ". At end of input the
command's stdin is closed and its remaining output is drained.`,
		},
		Params: append(append([]command.Param{}, invocationParams...),
			command.Param{Name: "timeout", Short: 't', Type: command.String, Description: "How long to wait for replies after each line", Default: "200ms"},
		),
		RunCLI: func(ctx context.Context, args json.RawMessage) error {
			var p struct {
				invocation
				Timeout string `json:"timeout"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return fmt.Errorf("invalid arguments: %w", err)
			}
			timeout, err := time.ParseDuration(p.Timeout)
			if err != nil {
				return fmt.Errorf("invalid timeout: %w", err)
			}
			return runSession(ctx, p.invocation, timeout)
		},
	})

	app.AddCommand(&command.Command{
		Name: "quote",
		Description: command.Description{
			Short: "Print a command line with every argument shell-quoted",
		},
		Params: []command.Param{
			{Name: "command", Short: 'c', Type: command.String, Description: "Program name", Required: true},
			{Name: "args", Short: 'a', Type: command.Array, Description: "Arguments to quote"},
		},
		RunCLI: func(ctx context.Context, args json.RawMessage) error {
			var p struct {
				Command string   `json:"command"`
				Args    []string `json:"args"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return fmt.Errorf("invalid arguments: %w", err)
			}
			fmt.Println(shell.Join(p.Command, p.Args))
			return nil
		},
	})

	app.AddCommand(&command.Command{
		Name: "profiles",
		Description: command.Description{
			Short: "List stream-routing profiles",
			Long:  "List the global profiles merged with those of the current project.",
		},
		RunCLI: func(ctx context.Context, args json.RawMessage) error {
			profiles, err := config.LoadMergedProfiles(projectRoot())
			if err != nil {
				return fmt.Errorf("loading profiles: %w", err)
			}
			return printProfiles(os.Stdout, profiles)
		},
	})
}

func projectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return ""
	}
	return root
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithProject(projectRoot())
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	return cfg, logger, nil
}

func newRunner(cfg *config.Config, logger *slog.Logger, dir string) *runner.Runner {
	return runner.New(runner.Config{
		Logger:               logger,
		PollInterval:         cfg.PollInterval(),
		ReadLength:           cfg.ReadLength,
		KeepTrailingNewlines: !cfg.TrimNewlines(),
		Dir:                  dir,
	})
}

func captureRouting(capture string) (runner.Routing, error) {
	switch capture {
	case "", "both":
		return runner.Routing{}, nil
	case "stdout":
		return runner.Routing{PassthroughError: true}, nil
	case "none":
		return runner.Routing{PassthroughOutput: true, PassthroughError: true}, nil
	default:
		return runner.Routing{}, fmt.Errorf("invalid capture %q (must be both, stdout or none)", capture)
	}
}

func profileRouting(p *profile.Profile) runner.Routing {
	return runner.Routing{
		PassthroughOutput: p.PassthroughOutput,
		PassthroughError:  p.PassthroughError,
		InputFromTerminal: p.InputFromTerminal,
	}
}

func runCommand(ctx context.Context, inv invocation, format, capture, dir string) error {
	name, args, err := inv.resolve()
	if err != nil {
		return err
	}

	routing, err := captureRouting(capture)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	profiles, err := config.LoadMergedProfiles(projectRoot())
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}

	matched, err := config.MatchProfile(profiles, name)
	if err != nil {
		return fmt.Errorf("matching profiles: %w", err)
	}
	if matched != nil {
		logger.Info("applying profile", "profile", matched.Name, "command", name)
		routing = profileRouting(matched)
		if dir == "" {
			dir = matched.Dir
		}
	}

	res, err := newRunner(cfg, logger, dir).Routed(ctx, routing, name, args...)
	if err != nil {
		return err
	}

	if err := writeResult(os.Stdout, os.Stderr, res, format); err != nil {
		return err
	}
	return exitWith(res.ExitStatus)
}

func writeResult(stdout, stderr io.Writer, res *runner.Result, format string) error {
	switch format {
	case "", "text":
		if res.Stdout != "" {
			fmt.Fprintln(stdout, res.Stdout)
		}
		if res.Stderr != "" {
			fmt.Fprintln(stderr, res.Stderr)
		}
		return nil

	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		return nil

	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		return enc.Close()

	default:
		return fmt.Errorf("invalid format %q (must be text, json or yaml)", format)
	}
}

func runInteractive(ctx context.Context, inv invocation) error {
	name, args, err := inv.resolve()
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn("stdin is not a terminal", "command", name)
	}

	status, err := newRunner(cfg, logger, "").Interactive(ctx, name, args...)
	if err != nil {
		return err
	}
	return exitWith(status)
}

func printProfiles(w io.Writer, profiles []*profile.Profile) error {
	if len(profiles) == 0 {
		fmt.Fprintln(w, "No profiles found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Profile\tMatch\tStdin\tStdout\tStderr\tDir")
	for _, p := range profiles {
		dir := p.Dir
		if dir == "" {
			dir = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name,
			strings.Join(p.Match, ", "),
			routeLabel(p.InputFromTerminal, "terminal", "closed"),
			routeLabel(p.PassthroughOutput, "terminal", "captured"),
			routeLabel(p.PassthroughError, "terminal", "captured"),
			dir,
		)
	}
	return tw.Flush()
}

func routeLabel(passthrough bool, yes, no string) string {
	if passthrough {
		return yes
	}
	return no
}

var errNoCommand = errors.New("one of command or line is required")
