package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"cvision/editor"
)

// hostCmd is a key the host handles itself instead of the type box.
type hostCmd int

const (
	cmdNone hostCmd = iota
	cmdQuit
	cmdPageUp
	cmdPageDown
	cmdClearLog
	cmdSaveLog
)

// inputFrame is one tick of input: the editor frame plus host commands.
type inputFrame struct {
	editor.Frame
	Cmds []hostCmd
}

// inputCollector folds tcell events into frames. The event loop feeds it
// between ticks and takes a frame on every tick.
type inputCollector struct {
	frame inputFrame

	x, y       float64
	held       bool
	framesHeld int

	pasting bool
	paste   strings.Builder
	clip    *memoryClipboard

	lastEvent string
}

func newInputCollector(clip *memoryClipboard) *inputCollector {
	return &inputCollector{clip: clip}
}

func (c *inputCollector) handle(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		c.handleKey(e)
	case *tcell.EventMouse:
		c.handleMouse(e)
	case *tcell.EventPaste:
		c.handlePaste(e)
	}
}

func (c *inputCollector) handleKey(ev *tcell.EventKey) {
	if c.pasting {
		switch ev.Key() {
		case tcell.KeyRune:
			c.paste.WriteRune(ev.Rune())
		case tcell.KeyEnter:
			c.paste.WriteByte('\n')
		case tcell.KeyTab:
			c.paste.WriteByte('\t')
		}
		return
	}
	if cmd := hostCommand(ev); cmd != cmdNone {
		c.frame.Cmds = append(c.frame.Cmds, cmd)
		c.lastEvent = fmt.Sprintf("cmd=%d", cmd)
		return
	}
	if k, ok := tcellKeyToEditor(ev); ok {
		c.frame.Keys = append(c.frame.Keys, k)
		c.lastEvent = fmt.Sprintf("key=%s mods=%s", k.Key, modsString(k.Mods))
	}
}

// handlePaste turns a bracketed paste into a clipboard paste, so the type
// box filters it like any other.
func (c *inputCollector) handlePaste(ev *tcell.EventPaste) {
	if ev.Start() {
		c.pasting = true
		c.paste.Reset()
		return
	}
	if !c.pasting {
		return
	}
	c.pasting = false
	if c.paste.Len() == 0 || c.clip == nil {
		return
	}
	c.clip.setLocal(c.paste.String())
	c.frame.Keys = append(c.frame.Keys, editor.Ctrl('v'))
}

func (c *inputCollector) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	c.x, c.y = float64(x), float64(y)
	btn := ev.Buttons()
	if btn&tcell.WheelUp != 0 {
		c.frame.Pointer.ScrollY++
	}
	if btn&tcell.WheelDown != 0 {
		c.frame.Pointer.ScrollY--
	}
	down := btn&tcell.Button1 != 0
	if down && !c.held {
		c.frame.Pointer.Pressed = true
		c.framesHeld = 0
	}
	c.held = down
}

// take returns the frame collected since the last tick and starts a new one.
func (c *inputCollector) take() inputFrame {
	f := c.frame
	f.Pointer.X, f.Pointer.Y = c.x, c.y
	f.Pointer.Held = c.held
	if c.held {
		c.framesHeld++
	}
	f.Pointer.FramesHeld = c.framesHeld
	c.frame = inputFrame{}
	return f
}

func hostCommand(ev *tcell.EventKey) hostCmd {
	switch ev.Key() {
	case tcell.KeyPgUp:
		return cmdPageUp
	case tcell.KeyPgDn:
		return cmdPageDown
	case tcell.KeyCtrlQ:
		return cmdQuit
	case tcell.KeyCtrlL:
		return cmdClearLog
	case tcell.KeyCtrlS:
		return cmdSaveLog
	case tcell.KeyRune:
		if ev.Modifiers()&tcell.ModCtrl != 0 {
			switch unicode.ToLower(ev.Rune()) {
			case 'q':
				return cmdQuit
			case 'l':
				return cmdClearLog
			case 's':
				return cmdSaveLog
			}
		}
	}
	return cmdNone
}

func tcellToMods(m tcell.ModMask) editor.Mod {
	var out editor.Mod
	if m&tcell.ModShift != 0 {
		out |= editor.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		out |= editor.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		out |= editor.ModAlt
	}
	return out
}

func tcellKeyToEditor(ev *tcell.EventKey) (editor.KeyEvent, bool) {
	mods := tcellToMods(ev.Modifiers())
	switch ev.Key() {
	case tcell.KeyRune:
		r := ev.Rune()
		if mods&editor.ModCtrl != 0 {
			r = unicode.ToLower(r)
		}
		return editor.KeyEvent{Key: editor.KeyRune, Rune: r, Mods: mods}, true
	case tcell.KeyUp:
		return editor.Press(editor.KeyUp, mods), true
	case tcell.KeyDown:
		return editor.Press(editor.KeyDown, mods), true
	case tcell.KeyLeft:
		return editor.Press(editor.KeyLeft, mods), true
	case tcell.KeyRight:
		return editor.Press(editor.KeyRight, mods), true
	case tcell.KeyHome:
		return editor.Press(editor.KeyHome, mods), true
	case tcell.KeyEnd:
		return editor.Press(editor.KeyEnd, mods), true
	case tcell.KeyEscape:
		return editor.Press(editor.KeyEscape, mods), true
	case tcell.KeyTAB:
		return editor.Press(editor.KeyTab, mods), true
	case tcell.KeyBacktab:
		return editor.Press(editor.KeyTab, mods|editor.ModShift), true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return editor.Press(editor.KeyBackspace, mods&^editor.ModCtrl), true
	case tcell.KeyDelete:
		return editor.Press(editor.KeyDelete, mods), true
	case tcell.KeyEnter:
		return editor.Press(editor.KeyEnter, mods), true
	}
	if k := ev.Key(); k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return editor.Ctrl(rune('a' + int(k-tcell.KeyCtrlA))), true
	}
	return editor.KeyEvent{}, false
}

func modsString(m editor.Mod) string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m&editor.ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	if m&editor.ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if m&editor.ModShift != 0 {
		parts = append(parts, "shift")
	}
	return strings.Join(parts, "+")
}
