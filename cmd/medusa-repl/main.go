// Command medusa-repl is the line-oriented REPL front end, SPEC_FULL.md
// §4.10: load a binary into a Document, build an x86 Architecture-backed
// Execution, and accept commands over github.com/chzyer/readline,
// mirroring go/repl/repl.go's Run/Feed loop.
package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
	"github.com/shibukawa/configdir"

	"github.com/gunmetal313/medusa/pkg/arch/x86"
	"github.com/gunmetal313/medusa/pkg/document"
	_ "github.com/gunmetal313/medusa/pkg/emulator/interp"
	"github.com/gunmetal313/medusa/pkg/execution"
	"github.com/gunmetal313/medusa/pkg/expr"
	"github.com/gunmetal313/medusa/pkg/script"
)

// session bundles the state one REPL command dispatches against.
type session struct {
	doc *document.Document
	ar  *x86.Architecture
	ex  *execution.Execution
	sc  *script.Engine
	out io.Writer
	hl  func(string) string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("usage: %s <binary>\n", os.Args[0])
		os.Exit(1)
	}
	data, err := ioutil.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	s := newSession(data)
	fmt.Fprintln(s.out, s.hl(fmt.Sprintf("loaded %s (%d bytes)", os.Args[1], len(data))))

	rl, err := readline.NewEx(&readline.Config{Prompt: "medusa> "})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !s.dispatch(line) {
			break
		}
	}
}

func newSession(data []byte) *session {
	doc := document.New(data, 0)
	ar := x86.New()
	ex := execution.New(doc, ar)

	hl := func(str string) string { return str }
	if isatty.IsTerminal(os.Stdout.Fd()) {
		hl = ansi.ColorFunc("green")
	}
	return &session{doc: doc, ar: ar, ex: ex, out: colorable.NewColorableStdout(), hl: hl}
}

// dispatch runs one REPL command. Returns false to end the session.
func (s *session) dispatch(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "quit", "exit":
		return false
	case "init":
		if err := s.ex.Initialize(0, nil, nil, ""); err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		if err := s.ex.SetEmulator("interp"); err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		sc, err := script.New(s.ex, s.ex.CpuContext())
		if err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		s.sc = sc
		fmt.Fprintln(s.out, s.hl("initialized, emulator=interp"))
		s.loadInitScript()
	case "script":
		if s.sc == nil {
			fmt.Fprintln(s.out, "not initialized (try: init)")
			break
		}
		if len(fields) < 2 {
			fmt.Fprintln(s.out, "usage: script <file.lish>")
			break
		}
		data, err := ioutil.ReadFile(fields[1])
		if err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		if err := s.sc.DoString(string(data)); err != nil {
			fmt.Fprintln(s.out, err)
		}
	case "run":
		if len(fields) < 2 {
			fmt.Fprintln(s.out, "usage: run <addr>")
			break
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 64)
		if err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		if err := s.ex.Execute(expr.Address{Offset: addr}); err != nil {
			fmt.Fprintln(s.out, err)
		}
	case "regs":
		s.printRegs()
	case "label":
		if len(fields) < 3 {
			fmt.Fprintln(s.out, "usage: label <name> <addr>")
			break
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), 16, 64)
		if err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		s.doc.AddLabel(fields[1], addr, document.Function|document.Exported)
	case "help":
		fmt.Fprintln(s.out, "commands: init, run <addr>, regs, label <name> <addr>, script <file>, quit")
	default:
		fmt.Fprintf(s.out, "unknown command %q (try help)\n", fields[0])
	}
	return true
}

// loadInitScript mirrors go/lua/repl.go's NewRepl: on every XDG config
// folder for vendor "medusa", application "lua", read and run init.lish if
// present, so a user's standing Lua setup (breakpoints, helpers) loads
// automatically once a session has an emulator to bind against.
func (s *session) loadInitScript() {
	configDirs := configdir.New("medusa", "lua")
	for _, dir := range configDirs.QueryFolders(configdir.All) {
		data, err := dir.ReadFile("init.lish")
		if err != nil {
			continue
		}
		if err := s.sc.DoString(string(data)); err != nil {
			fmt.Fprintf(s.out, "error while reading init.lish: %v\n", err)
		}
	}
}

func (s *session) printRegs() {
	cpuCtx := s.ex.CpuContext()
	if cpuCtx == nil {
		fmt.Fprintln(s.out, "not initialized (try: init)")
		return
	}
	for _, d := range s.ar.CpuInformation().Registers() {
		v, ok := cpuCtx.ReadRegister(d.ID, d.Bits)
		if !ok {
			continue
		}
		fmt.Fprintf(s.out, "  %-8s %s\n", d.Name, s.hl(fmt.Sprintf("%#x", v)))
	}
}
