// profilectl talks to the Profile Store from the command line. Settings come
// from an optional config file and PROFILES_* environment variables.
//
//	profilectl [--config file] [--log-level debug] <command> [flags] [args]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-profiles/pkg/activity"
	"github.com/goliatone/go-profiles/pkg/client"
	"github.com/goliatone/go-profiles/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is handed to every command.
type env struct {
	client *client.Client
	log    *logrus.Logger
	stdin  io.Reader
	stdout io.Writer
	output string
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"load":     {"load <id>...            print stored profiles", runLoad},
	"save":     {"save <id> --attr ...    set attributes and save", runSave},
	"delete":   {"delete <id>             delete a profile", runDelete},
	"merge":    {"merge <id> <other>      merge other into id", runMerge},
	"settings": {"settings [--set k=v]    show or update app settings", runSettings},
	"segments": {"segments                list segments", runSegments},
	"evaluate": {"evaluate <id> ...       evaluate a profile remotely", runEvaluate},
	"match":    {"match <id> --expr ...   evaluate a rule locally", runMatch},
	"stream":   {"stream                  read stream data from stdin", runStream},
	"tasks":    {"tasks                   list scheduler tasks", runTasks},
}

var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		configPath  string
		logLevel    string
		noCache     bool
		logActivity bool
		output      string
	)
	flags := pflag.NewFlagSet("profilectl", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	flags.StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	flags.StringVar(&logLevel, "log-level", "", "override the configured log level")
	flags.BoolVar(&noCache, "no-cache", false, "bypass the read cache")
	flags.BoolVar(&logActivity, "log-activity", false, "log emitted activity events")
	flags.StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	flags.Usage = func() { printUsage(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	rest := flags.Args()
	if len(rest) == 0 {
		printUsage(stderr, flags)
		return errUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		printUsage(stderr, flags)
		return fmt.Errorf("unknown command %q", rest[0])
	}

	if output != "json" && output != "yaml" {
		return fmt.Errorf("%w: --output must be json or yaml", errUsage)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if noCache {
		cfg.NoCache = true
	}

	log := logrus.New()
	log.SetOutput(stderr)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)

	opts := []client.Option{client.WithLogger(log)}
	if logActivity {
		emitter := activity.NewEmitter(activity.Hooks{activity.LogHook(log)}, activity.Config{Enabled: true})
		opts = append(opts, client.WithEmitter(emitter))
	}
	c, err := client.New(*cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			log.WithError(cerr).Warn("close client")
		}
	}()

	return cmd.run(ctx, &env{client: c, log: log, stdin: stdin, stdout: stdout, output: output}, rest[1:])
}

func printUsage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: profilectl [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintf(w, "\nenvironment: %s_BUCKET_NAME, %s_APP_NAME, %s_APP_KEY, %s_API_URL, %s_GROUP_ID, ...\n",
		config.EnvPrefix, config.EnvPrefix, config.EnvPrefix, config.EnvPrefix, config.EnvPrefix)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("%w: profilectl %s", errUsage, usage)
	}
	return nil
}
