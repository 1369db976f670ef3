package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cvision/bridge"
	"cvision/config"
	"cvision/editor"
	"cvision/logview"
)

const frameDT = 50 * time.Millisecond

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendNone
	cfg.Echo = false
	cfg.Highlight = false
	return cfg
}

func newTestChatWith(t *testing.T, cfg config.Config) *chatApp {
	t.Helper()
	app, err := newChatApp(cfg, editor.FixedMetrics{Glyph: 1, Line: 1}, &memoryClipboard{})
	if err != nil {
		t.Fatalf("newChatApp: %v", err)
	}
	t.Cleanup(app.close)
	return app
}

func newTestChat(t *testing.T) *chatApp {
	t.Helper()
	app := newTestChatWith(t, testConfig())
	app.layout(40, 20)
	return app
}

func settle(app *chatApp, frames int) {
	for range frames {
		app.update(frameDT, inputFrame{})
	}
}

func typeAndSubmit(app *chatApp, text string) {
	keys := append(editor.Type(text), editor.Press(editor.KeyEnter, 0))
	app.update(0, inputFrame{Frame: editor.Frame{Keys: keys}})
}

func texts(v *logview.View) []string {
	var out []string
	for _, e := range v.Entries() {
		out = append(out, e.Text)
	}
	return out
}

func TestLayoutSplitsScreen(t *testing.T) {
	app := newTestChat(t)
	app.layout(80, 24)
	if got := app.view.Bounds; got != (editor.Box{W: 80, H: 20}) {
		t.Fatalf("view bounds = %+v", got)
	}
	if got := app.box.Bounds; got != (editor.Box{Y: 20, W: 80, H: 3}) {
		t.Fatalf("box bounds = %+v", got)
	}
	app.layout(10, 2)
	if app.view.Bounds.H != 0 || app.box.Bounds.H != 1 {
		t.Fatalf("tiny screen: view %+v box %+v", app.view.Bounds, app.box.Bounds)
	}
}

func TestSubmitAddsUserEntry(t *testing.T) {
	app := newTestChat(t)
	typeAndSubmit(app, "hi there")
	if app.box.Text() != "" {
		t.Fatalf("box should be cleared after submit, got %q", app.box.Text())
	}
	settle(app, 10)
	es := app.view.Entries()
	if len(es) != 1 || es[0].Text != "hi there" || !es[0].User {
		t.Fatalf("entries = %+v", texts(app.view))
	}
}

func TestEchoReplyStreamsIntoOneEntry(t *testing.T) {
	q := logview.NewQueue()
	echoReply(q, "one two  three", time.Second)
	var items []logview.Item
	for {
		it, ok := q.DrainOne()
		if !ok {
			break
		}
		items = append(items, it)
	}
	if len(items) != 3 {
		t.Fatalf("items = %+v, want 3", items)
	}
	if items[0].Text != "one" || !items[0].Open || items[0].Append || items[0].Delay != time.Second {
		t.Fatalf("first item = %+v", items[0])
	}
	if items[1].Text != " two" || !items[1].Append || !items[1].Open {
		t.Fatalf("middle item = %+v", items[1])
	}
	if items[2].Text != " three" || !items[2].Append || items[2].Open {
		t.Fatalf("last item = %+v, want closing append", items[2])
	}

	echoReply(q, "single", 0)
	if it, _ := q.DrainOne(); it.Open || it.Append {
		t.Fatalf("one word reply should be a closed entry, got %+v", it)
	}
	echoReply(q, "   ", 0)
	if q.Len() != 0 {
		t.Fatal("blank text should not be echoed")
	}
}

func TestEchoProducerAnswers(t *testing.T) {
	cfg := testConfig()
	cfg.Echo = true
	cfg.EchoDelay = 0
	app := newTestChatWith(t, cfg)
	app.layout(40, 20)

	typeAndSubmit(app, "ping pong")
	deadline := time.Now().Add(5 * time.Second)
	replied := func() bool {
		es := app.view.Entries()
		return len(es) == 2 && es[1].Committed
	}
	for !replied() {
		if time.Now().After(deadline) {
			t.Fatalf("echo never arrived, entries %q", texts(app.view))
		}
		app.update(frameDT, inputFrame{})
		time.Sleep(time.Millisecond)
	}
	es := app.view.Entries()
	if es[1].Text != "ping pong" || es[1].User {
		t.Fatalf("echo entry = %+v", es[1])
	}
}

func TestCommandRunsThroughBridge(t *testing.T) {
	app := newTestChat(t)
	got := make(chan []string, 1)
	app.run = func(ctx context.Context, argv []string, sink bridge.Sink, opts bridge.Options) error {
		got <- argv
		sink.PushItem(logview.Item{Text: "out"})
		return errors.New("exit status 2")
	}

	typeAndSubmit(app, `!grep -n "two words" file`)
	select {
	case argv := <-got:
		want := []string{"grep", "-n", "two words", "file"}
		if len(argv) != len(want) {
			t.Fatalf("argv = %q, want %q", argv, want)
		}
		for i := range want {
			if argv[i] != want[i] {
				t.Fatalf("argv = %q, want %q", argv, want)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("command was not run")
	}
	app.wg.Wait()
	settle(app, 20)

	ts := texts(app.view)
	if len(ts) != 3 || ts[0] != `!grep -n "two words" file` || ts[1] != "out" || ts[2] != "[exit] exit status 2" {
		t.Fatalf("entries = %q", ts)
	}
}

func TestBlankCommandIsIgnored(t *testing.T) {
	app := newTestChat(t)
	called := false
	app.run = func(context.Context, []string, bridge.Sink, bridge.Options) error {
		called = true
		return nil
	}
	typeAndSubmit(app, "!   ")
	app.wg.Wait()
	if called {
		t.Fatal("blank command should not run")
	}
}

func TestClickingEntryEditsIt(t *testing.T) {
	app := newTestChat(t)
	app.queue.Push("from the log", false, 0)
	settle(app, 20)
	app.box.Blur()

	e := app.view.Entries()[0]
	v := app.view
	x := v.Bounds.X + e.X + 1
	y := v.Bounds.Y + max(0, v.Bounds.H-v.ContentExtent()) + e.Top() + 1 - v.ScrollOffset()
	app.update(frameDT, inputFrame{Frame: editor.Frame{Pointer: editor.Pointer{X: x, Y: y, Pressed: true}}})

	if app.box.Text() != "from the log" {
		t.Fatalf("box text = %q", app.box.Text())
	}
	if !app.box.Focused() {
		t.Fatal("box should take focus after a click on the log")
	}
	if !e.Selected {
		t.Fatal("clicked entry should be selected")
	}
}

func TestTypingRefocusesBox(t *testing.T) {
	app := newTestChat(t)
	app.box.Blur()
	app.update(0, inputFrame{Frame: editor.Frame{Keys: editor.Type("x")}})
	if !app.box.Focused() || app.box.Text() != "x" {
		t.Fatalf("focused=%v text=%q", app.box.Focused(), app.box.Text())
	}
}

func TestHostCommands(t *testing.T) {
	app := newTestChat(t)
	for i := range 30 {
		app.queue.Push(string(rune('a'+i%26)), i%2 == 0, 0)
	}
	settle(app, 60)
	bottom := app.view.ScrollTarget()
	if bottom <= 0 {
		t.Fatal("log should overflow the view")
	}

	app.update(frameDT, inputFrame{Cmds: []hostCmd{cmdPageUp}})
	if got := app.view.ScrollTarget(); got != bottom-(app.view.Bounds.H-1) {
		t.Fatalf("page up target = %v, bottom %v", got, bottom)
	}
	app.update(frameDT, inputFrame{Cmds: []hostCmd{cmdPageDown}})
	if got := app.view.ScrollTarget(); got != bottom {
		t.Fatalf("page down target = %v, want %v", got, bottom)
	}

	app.update(frameDT, inputFrame{Cmds: []hostCmd{cmdClearLog}})
	if app.view.Len() != 0 {
		t.Fatalf("clear left %d entries", app.view.Len())
	}

	app.update(frameDT, inputFrame{Cmds: []hostCmd{cmdQuit}})
	if !app.quit {
		t.Fatal("quit command should stop the app")
	}
}

func TestCaretBlinks(t *testing.T) {
	app := newTestChat(t)
	period := time.Duration(app.cfg.Box.BlinkPeriod)
	app.update(period, inputFrame{})
	if app.caretOn {
		t.Fatal("caret should be off after one period")
	}
	app.update(0, inputFrame{Frame: editor.Frame{Keys: editor.Type("a")}})
	if !app.caretOn {
		t.Fatal("typing should show the caret")
	}
}

func TestCaption(t *testing.T) {
	app := newTestChat(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	app.now = func() time.Time { return now }
	user := &logview.Entry{User: true, Time: now.Add(-3 * time.Minute)}
	if got := app.caption(user); got != "you · 3 minutes ago" {
		t.Fatalf("caption = %q", got)
	}
	other := &logview.Entry{Time: now.Add(-2 * time.Hour)}
	if got := app.caption(other); got != "2 hours ago" {
		t.Fatalf("caption = %q", got)
	}
}

func TestLogSurvivesRestart(t *testing.T) {
	for _, backend := range []string{config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig()
			cfg.Store.Backend = backend
			cfg.Store.Path = filepath.Join(t.TempDir(), "log")

			first, err := newChatApp(cfg, editor.FixedMetrics{Glyph: 1, Line: 1}, &memoryClipboard{})
			if err != nil {
				t.Fatalf("newChatApp: %v", err)
			}
			first.layout(40, 20)
			typeAndSubmit(first, "remember everything")
			first.queue.Push("noted", false, 0)
			settle(first, 20)
			first.close()

			second := newTestChatWith(t, cfg)
			if got := texts(second.view); len(got) != 2 || got[0] != "remember everything" || got[1] != "noted" {
				t.Fatalf("restored entries = %q", got)
			}
			if text, ok := second.box.History.Step(-1, ""); !ok || text != "remember everything" {
				t.Fatalf("history = %q %v, want the restored user message", text, ok)
			}
			if cand, ok := second.box.Vocab.Match("remem"); !ok || cand != "remember" {
				t.Fatalf("vocabulary match = %q %v", cand, ok)
			}
		})
	}
}

func TestStatusLine(t *testing.T) {
	app := newTestChat(t)
	if got := app.statusLine(); got != "0 entries | 0 queued | idle | log: not saved | Ctrl+Q quit" {
		t.Fatalf("status = %q", got)
	}
}
