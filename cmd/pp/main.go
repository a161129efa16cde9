package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/edagar/pypolicy"
)

const (
	appName     = "pp"
	historyFile = ".pp_history"
	promptMain  = "pp> "
	promptCont  = "... "
)

var (
	banner   = fmt.Sprintf("pp %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.", pypolicy.Version)
	helpText = `REPL commands:
  :quit       Exit the REPL
  :help       Show this help
  :globals    List persistent global bindings
  :trace      Toggle statement tracing
`
)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "ast":
		os.Exit(cmdAST(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(pypolicy.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`pp %s

Usage:
  %s run <file.pp> [-token <json>] [-json]   Evaluate a policy file.
  %s ast <file.pp>                           Print the parsed AST.
  %s repl                                    Start the REPL.
  %s version                                 Print the engine version.

run flags:
  -token <json>   Bind the JSON document as the global "token".
  -json           Print the policy result as JSON instead of pp syntax.
`, pypolicy.Version, appName, appName, appName, appName)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	token := fs.String("token", "", "JSON document bound as the global \"token\"")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file.pp> [-token <json>] [-json]\n", appName)
		return 2
	}
	file := fs.Arg(0)

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	ip := pypolicy.NewInterpreter()
	if *token != "" {
		tv, err := pypolicy.ValueFromJSON(*token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: bad -token JSON: %v\n", appName, err)
			return 2
		}
		ip.DefineGlobal("token", tv)
	}

	res, err := ip.EvalSource(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, pypolicy.WrapErrorWithName(err, filepath.Base(file), string(src)))
		return 1
	}

	if *asJSON {
		out, err := pypolicy.ValueToJSON(res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		fmt.Println(out)
		return 0
	}
	fmt.Printf("policy return: %s\n", res)
	return 0
}

// -----------------------------------------------------------------------------
// ast
// -----------------------------------------------------------------------------

func cmdAST(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s ast <file.pp>\n", appName)
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, args[0], err)
		return 1
	}
	prog, err := pypolicy.Parse(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, pypolicy.WrapErrorWithName(err, filepath.Base(args[0]), string(src)))
		return 1
	}
	fmt.Print(pypolicy.FormatNode(prog))
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ip := pypolicy.NewInterpreter()
	tracing := false

	for {
		code, ok := readMultiline(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			case ":help":
				fmt.Print(helpText)
			case ":globals":
				for _, name := range ip.Global.Names() {
					v, _ := ip.Global.Get(name)
					fmt.Printf("%s = %s\n", name, v)
				}
			case ":trace":
				tracing = !tracing
				if tracing {
					ip.SetTraceHook(func(line int, _ pypolicy.Node) {
						fmt.Printf("  [line %d]\n", line)
					})
					fmt.Println("tracing on")
				} else {
					ip.SetTraceHook(nil)
					fmt.Println("tracing off")
				}
			default:
				fmt.Println("unknown command. Type :help for commands.")
			}
			continue
		}

		v, err := ip.EvalPersistentSource(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(pypolicy.WrapErrorWithSource(err, code).Error()))
			continue
		}
		fmt.Println(v)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readMultiline accumulates lines until the input parses, or fails with
// an error that is not just an unfinished construct.
func readMultiline(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, perr := pypolicy.ParseInteractive(src); perr != nil && pypolicy.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}
