// Command medusa-tui is the split-pane TUI front end, SPEC_FULL.md
// §4.10: a github.com/jroimartin/gocui view split into registers,
// disassembly, and log panes, stepping the Execution one instruction per
// keypress, mirroring go/ui/tui.go's layout/bindKeys/quit shape.
package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/jroimartin/gocui"

	"github.com/gunmetal313/medusa/pkg/arch/x86"
	"github.com/gunmetal313/medusa/pkg/document"
	_ "github.com/gunmetal313/medusa/pkg/emulator/interp"
	"github.com/gunmetal313/medusa/pkg/execution"
	"github.com/gunmetal313/medusa/pkg/expr"
)

type tui struct {
	doc *document.Document
	ar  *x86.Architecture
	ex  *execution.Execution
	g   *gocui.Gui

	entry    uint64
	logLines []string
	stepOnce bool
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

	t := &tui{doc: document.New(data, 0)}
	t.ar = x86.New()
	t.ex = execution.New(t.doc, t.ar)
	if err := t.ex.Initialize(0, nil, nil, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := t.ex.SetEmulator("interp"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// A step-granularity hook: while a step is pending it lets one
	// instruction run, then stops at the next one and records its address,
	// so each space keypress advances exactly one instruction regardless of
	// how many instructions the underlying block actually covers.
	if err := t.ex.HookInstruction(t.onInstruction); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer g.Close()
	t.g = g
	g.SetManagerFunc(t.layout)
	t.log("loaded %s (%d bytes)", os.Args[1], len(data))

	if err := t.bindKeys(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (t *tui) onInstruction(addr uint64) bool {
	if t.stepOnce {
		t.stepOnce = false
		return true
	}
	t.entry = addr
	return false
}

func (t *tui) log(format string, args ...interface{}) {
	t.logLines = append(t.logLines, fmt.Sprintf(format, args...))
	if len(t.logLines) > 200 {
		t.logLines = t.logLines[len(t.logLines)-200:]
	}
}

func (t *tui) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	regW := maxX / 4
	if v, err := g.SetView("registers", 0, 0, regW, maxY-8); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "registers"
	}
	if v, err := g.SetView("disasm", regW+1, 0, maxX-1, maxY-8); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "disasm"
	}
	if v, err := g.SetView("log", 0, maxY-7, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "log (space: step, q: quit)"
		v.Wrap = true
		g.SetCurrentView("log")
	}
	t.render()
	return nil
}

func (t *tui) render() {
	if v, err := t.g.View("registers"); err == nil {
		v.Clear()
		if cpuCtx := t.ex.CpuContext(); cpuCtx != nil {
			for _, d := range t.ar.CpuInformation().Registers() {
				if val, ok := cpuCtx.ReadRegister(d.ID, d.Bits); ok {
					fmt.Fprintf(v, "%-8s %#x\n", d.Name, val)
				}
			}
		}
	}
	if v, err := t.g.View("disasm"); err == nil {
		v.Clear()
		fmt.Fprintf(v, "next: %#x\n", t.entry)
		if cell, ok := t.doc.GetCell(t.entry); ok && cell.Insn != nil {
			fmt.Fprintf(v, "%s %s\n", cell.Insn.Mnemonic, cell.Insn.OpStr)
		}
	}
	if v, err := t.g.View("log"); err == nil {
		v.Clear()
		fmt.Fprint(v, strings.Join(t.logLines, "\n"))
	}
}

func (t *tui) bindKeys() error {
	if err := t.g.SetKeybinding("", 'q', gocui.ModNone, t.quit); err != nil {
		return err
	}
	return t.g.SetKeybinding("", gocui.KeySpace, gocui.ModNone, t.step)
}

func (t *tui) quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

func (t *tui) step(g *gocui.Gui, v *gocui.View) error {
	t.stepOnce = true
	if err := t.ex.Execute(expr.Address{Offset: t.entry}); err != nil {
		t.log("error: %v", err)
	} else {
		t.log("stepped to %#x", t.entry)
	}
	t.render()
	return nil
}
