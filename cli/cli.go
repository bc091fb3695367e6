package cli

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/esp/cli/cmd"
	"github.com/ardnew/esp/cli/cmd/repl"
	"github.com/ardnew/esp/lang"
	"github.com/ardnew/esp/log"
	"github.com/ardnew/esp/pkg"
)

// namespaces maps --namespace names to their constructors.
var namespaces = map[string]func() *lang.Namespace{
	"math": lang.MathNamespace,
	"expr": lang.ExprNamespace,
	"sys":  lang.SysNamespace,
}

// CLI is the top-level command-line interface for esp.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Config    kong.ConfigFlag  `default:"${configPath}" help:"Configuration script."       type:"path"`
	Version   kong.VersionFlag `help:"Print version and exit."`
	Namespace []string         `default:"math"          enum:"math,expr,sys"                help:"Namespaces to install (${enum})." short:"n"`
	MaxDepth  int              `default:"${maxDepth}"   help:"Maximum depth of nested function calls."`
	Source    []string         `help:"Source file(s) evaluated before the command, or '-' for stdin." short:"s" type:"existingfile"`

	Eval cmd.Eval  `cmd:"" default:"withargs" help:"Evaluate sources and expressions and print the result."`
	Fmt  cmd.Fmt   `cmd:""                    help:"Format source files."`
	Init cmd.Init  `cmd:""                    help:"Write the configuration script from current flag values."`
	Repl repl.Repl `cmd:""                    help:"Start an interactive shell."`
}

// Run executes the esp CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := pkg.MkdirAll(); err != nil {
		return err
	}

	configPath := pkg.ConfigPath(pkg.ConfigFile)

	vars := kong.Vars{
		"configPath":  configPath,
		"historyPath": pkg.CachePath(pkg.HistoryFile),
		"maxDepth":    strconv.Itoa(lang.DefaultMaxDepth),
		"version":     pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(append([]kong.Group{cli.Log.group()}, cli.Pprof.groups()...)),
		kong.DefaultEnvars(pkg.Prefix()),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve(ctx, cmd.ConfigName), configPath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values, including those
	// resolved from the configuration script and environment.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	session := cli.session(ctx)
	session.ConfigPath = string(cli.Config)

	return ktx.Run(session)
}

// session builds the interpreter from the parsed global flags.
func (c *CLI) session(ctx context.Context) *cmd.Session {
	var installed []*lang.Namespace

	seen := make(map[string]bool)

	for _, name := range c.Namespace {
		mk, ok := namespaces[name]
		if !ok || seen[name] {
			continue
		}

		seen[name] = true
		installed = append(installed, mk())
	}

	it := lang.New(
		lang.WithNamespace(installed...),
		lang.WithMaxDepth(c.MaxDepth),
		lang.WithLogger(log.Default()),
	)

	log.DebugContext(ctx, "interpreter ready",
		slog.Any("namespaces", c.Namespace),
		slog.Int("max_depth", c.MaxDepth),
		slog.Any("sources", c.Source),
	)

	return cmd.NewSession(it, c.Source...)
}
