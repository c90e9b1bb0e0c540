// Command combo fetches, resolves, and materializes a project's source
// dependencies.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/annieherram/combo/log"
	"github.com/sdboyer/constext"
)

// command is the contract every subcommand satisfies, registered in main's
// command table.
type command interface {
	Name() string            // "resolve"
	Args() string            // "[--force] [--path P] [--sources-json J]"
	ShortHelp() string       // one-line summary
	LongHelp() string        // full description
	Register(*flag.FlagSet)  // subcommand-specific flags
	Hidden() bool            // omit from the top-level usage listing
	Run(ctx context.Context, args []string) error
}

func main() {
	c := &Config{
		Args:   os.Args,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	os.Exit(c.Run())
}

// Config specifies a full invocation of combo.
type Config struct {
	Args           []string
	Stdout, Stderr io.Writer
}

// Run executes a configuration and returns a process exit code.
func (c *Config) Run() (exitCode int) {
	commands := []command{
		&resolveCommand{},
		&isDirtyCommand{},
		&checkForUpdatesCommand{},
		&deleteCacheCommand{},
		&clearOldOutputsCommand{},
		&uploadCommand{},
	}

	outLogger := log.New(c.Stdout)
	errLogger := stdlog.New(c.Stderr, "", 0)

	usage := func() {
		errLogger.Println("combo fetches and resolves source dependencies for a project")
		errLogger.Println()
		errLogger.Println("Usage: combo <command>")
		errLogger.Println()
		errLogger.Println("Commands:")
		errLogger.Println()
		w := tabwriter.NewWriter(c.Stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			if !cmd.Hidden() {
				fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
			}
		}
		w.Flush()
		errLogger.Println()
		errLogger.Println(`Use "combo help [command]" for more information about a command.`)
	}

	cmdName, printCommandHelp, exit := parseArgs(c.Args)
	if exit {
		usage()
		return 1
	}

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}

		fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		fs.SetOutput(c.Stderr)
		verbose := fs.Bool("v", false, "enable verbose logging")
		cmd.Register(fs)
		resetUsage(errLogger, fs, cmdName, cmd.Args(), cmd.LongHelp())

		if printCommandHelp {
			fs.Usage()
			return 1
		}
		if err := fs.Parse(c.Args[2:]); err != nil {
			return 1
		}
		if *verbose {
			outLogger.Logln("verbose logging enabled")
		}

		ctx, stop := signalContext()
		defer stop()

		if err := cmd.Run(ctx, fs.Args()); err != nil {
			errLogger.Printf("%v\n", err)
			return 1
		}
		return 0
	}

	errLogger.Printf("combo: %s: no such command\n", cmdName)
	usage()
	return 1
}

// signalContext returns a context cancelled on SIGINT, merged via
// constext.Cons with context.Background so the merged context carries
// neither parent's unrelated deadline semantics, just a single cancel path.
func signalContext() (context.Context, func()) {
	sigCtx, sigStop := signal.NotifyContext(context.Background(), os.Interrupt)
	merged, cancel := constext.Cons(context.Background(), sigCtx)
	return merged, func() {
		cancel()
		sigStop()
	}
}

func resetUsage(logger *stdlog.Logger, fs *flag.FlagSet, name, args, longHelp string) {
	var (
		hasFlags   bool
		flagBlock  bytes.Buffer
		flagWriter = tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	)
	fs.VisitAll(func(f *flag.Flag) {
		hasFlags = true
		defValue := f.DefValue
		if defValue == "" {
			defValue = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, defValue)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		logger.Printf("Usage: combo %s %s\n", name, args)
		logger.Println()
		logger.Println(strings.TrimSpace(longHelp))
		logger.Println()
		if hasFlags {
			logger.Println("Flags:")
			logger.Println()
			logger.Println(flagBlock.String())
		}
	}
}

// parseArgs determines the subcommand name and whether the user asked for
// help to be printed.
func parseArgs(args []string) (cmdName string, printCmdUsage bool, exit bool) {
	isHelpArg := func() bool {
		return strings.Contains(strings.ToLower(args[1]), "help") || strings.ToLower(args[1]) == "-h"
	}

	switch len(args) {
	case 0, 1:
		exit = true
	case 2:
		if isHelpArg() {
			exit = true
		}
		cmdName = args[1]
	default:
		if isHelpArg() {
			cmdName = args[2]
			printCmdUsage = true
		} else {
			cmdName = args[1]
		}
	}
	return cmdName, printCmdUsage, exit
}
