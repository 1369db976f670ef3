package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"cvision/bridge"
	"cvision/config"
	"cvision/editor"
	"cvision/logview"
	"cvision/syntax"
)

type theme struct {
	Background editor.Color
	View       logview.Style
	Box        editor.Style
}

var chatTheme = theme{
	Background: editor.RGB(0x1e, 0x1e, 0x2e),
	View: logview.Style{
		Background: editor.RGB(0x1e, 0x1e, 0x2e),
		UserFill:   editor.RGB(0x31, 0x48, 0x6b),
		OtherFill:  editor.RGB(0x31, 0x32, 0x44),
		Border:     editor.RGB(0x58, 0x5b, 0x70),
		Selected:   editor.RGB(0xf9, 0xe2, 0xaf),
		Text:       editor.RGB(0xcd, 0xd6, 0xf4),
		Caption:    editor.RGB(0x9c, 0xa0, 0xb0),
		Track:      editor.RGB(0x18, 0x18, 0x25),
		Thumb:      editor.RGB(0x6c, 0x70, 0x86),
	},
	Box: editor.Style{
		Fill:        editor.RGB(0x18, 0x18, 0x25),
		Border:      editor.RGB(0x89, 0xb4, 0xfa),
		BorderWidth: 1,
		Text:        editor.RGB(0xcd, 0xd6, 0xf4),
		Placeholder: editor.RGB(0x6c, 0x70, 0x86),
		Selection:   editor.RGB(0x45, 0x47, 0x5a),
		Suggestion:  editor.RGB(0x31, 0x32, 0x44),
		Caret:       editor.RGB(0xf5, 0xe0, 0xdc),
	},
}

const echoWordDelay = 60 * time.Millisecond

// runCommand is swapped out by tests.
type runCommand func(ctx context.Context, argv []string, sink bridge.Sink, opts bridge.Options) error

// chatApp is the demo around the engine: a log view above a one-line type
// box. Messages are echoed back by a producer goroutine and lines starting
// with the bridge prefix run as console commands.
type chatApp struct {
	cfg   config.Config
	queue *logview.Queue
	view  *logview.View
	box   *editor.Router

	closeStore func() error
	storeName  string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	echo   chan string
	run    runCommand
	now    func() time.Time

	blink   time.Duration
	caretOn bool
	quit    bool
}

// boxSink puts clicked log text into the type box.
type boxSink struct{ r *editor.Router }

func (b boxSink) SetText(s string) {
	b.r.SetText(s)
	b.r.Buf.SetCursor(b.r.Buf.Len())
	b.r.Focus()
}

func newChatApp(cfg config.Config, m editor.Metrics, clip editor.Clipboard) (*chatApp, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &chatApp{
		cfg:        cfg,
		queue:      logview.NewQueue(),
		closeStore: func() error { return nil },
		ctx:        ctx,
		cancel:     cancel,
		run:        bridge.Run,
		now:        time.Now,
		caretOn:    true,
	}

	a.view = logview.NewView(m, a.queue, cfg.LogViewConfig())
	a.view.Now = func() time.Time { return a.now() }
	a.view.Caption = a.caption
	if cfg.Highlight {
		a.view.Highlight = syntax.NewHighlighter(nil)
	}

	a.box = editor.NewRouter(m, editor.Options{
		SubmitOnEnter: true,
		History:       cfg.Box.History,
		MaxLen:        cfg.Box.MaxLen,
	})
	a.box.Padding = 1
	a.box.Placeholder = cfg.Box.Placeholder
	a.box.SetClipboard(clip)
	if cfg.Box.Vocabulary > 0 {
		a.box.Vocab = editor.NewVocabulary(cfg.Box.Vocabulary)
	}
	a.box.Focus()
	a.view.Edit = boxSink{a.box}

	store, closeStore, err := cfg.OpenStore()
	if err != nil {
		log.Printf("Chat: log store unavailable, not saving: %v", err)
	} else if store != nil {
		a.view.Store = store
		a.closeStore = closeStore
		a.storeName = cfg.Store.Backend
		if !a.view.Load() {
			log.Printf("Chat: saved log only partly restored")
		}
		a.learn()
	}

	if cfg.Echo {
		a.echo = make(chan string, 16)
		a.wg.Add(1)
		go a.echoLoop()
	}
	return a, nil
}

// learn feeds restored user messages to history and suggestions.
func (a *chatApp) learn() {
	for _, e := range a.view.Entries() {
		if !e.User {
			continue
		}
		if a.box.History != nil {
			a.box.History.Add(e.Text)
		}
		if a.box.Vocab != nil {
			a.box.Vocab.Add(e.Text)
		}
	}
}

func (a *chatApp) caption(e *logview.Entry) string {
	when := humanize.RelTime(e.Time, a.now(), "ago", "from now")
	if e.User {
		return "you · " + when
	}
	return when
}

// layout splits the screen: log on top, type box below, one status row.
func (a *chatApp) layout(w, h float64) {
	boxH := float64(a.cfg.Box.Height)
	logH := max(0, h-1-boxH)
	a.view.Bounds = editor.Box{X: 0, Y: 0, W: w, H: logH}
	a.box.Bounds = editor.Box{X: 0, Y: logH, W: w, H: min(boxH, max(0, h-1))}
}

func (a *chatApp) update(dt time.Duration, f inputFrame) {
	for _, cmd := range f.Cmds {
		switch cmd {
		case cmdQuit:
			a.quit = true
			return
		case cmdPageUp:
			a.view.ScrollBy(-max(1, a.view.Bounds.H-1))
		case cmdPageDown:
			a.view.ScrollBy(max(1, a.view.Bounds.H-1))
		case cmdClearLog:
			a.view.Clear()
		case cmdSaveLog:
			a.view.Save()
		}
	}

	if !a.box.Focused() {
		for _, k := range f.Keys {
			if k.Key == editor.KeyRune && k.Mods&(editor.ModCtrl|editor.ModAlt) == 0 {
				a.box.Focus()
				break
			}
		}
	}

	for _, ev := range a.box.Update(f.Frame) {
		if ev.Kind == editor.EventSubmit {
			a.submit(ev.Text)
		}
	}
	a.view.Update(dt, f.Pointer)

	a.blink += dt
	if len(f.Keys) > 0 {
		a.blink = 0
	}
	if period := time.Duration(a.cfg.Box.BlinkPeriod); period > 0 {
		a.caretOn = (a.blink/period)%2 == 0
	}
}

func (a *chatApp) submit(text string) {
	a.queue.Push(text, true, 0)
	if p := a.cfg.Bridge.Prefix; p != "" && strings.HasPrefix(text, p) {
		a.command(strings.TrimPrefix(text, p))
		return
	}
	if a.echo == nil {
		return
	}
	select {
	case a.echo <- text:
	default:
		log.Printf("Chat: echo busy, dropped %q", text)
	}
}

// command runs line through the console bridge. Output and the exit status
// arrive through the queue.
func (a *chatApp) command(line string) {
	argv := bridge.Split(line)
	if len(argv) == 0 {
		return
	}
	opts := bridge.Options{
		Stream:    a.cfg.Bridge.Stream,
		LineDelay: time.Duration(a.cfg.Bridge.LineDelay),
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx := a.ctx
		if t := time.Duration(a.cfg.Bridge.Timeout); t > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t)
			defer cancel()
		}
		if err := a.run(ctx, argv, a.queue, opts); err != nil {
			log.Printf("Chat: command %q: %v", line, err)
			a.queue.Push(fmt.Sprintf("[exit] %v", err), false, 0)
		}
	}()
}

func (a *chatApp) echoLoop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case text := <-a.echo:
			echoReply(a.queue, text, time.Duration(a.cfg.EchoDelay))
		}
	}
}

// echoReply streams text back word by word into one entry. The first word
// waits out delay, which reads as the other side typing.
func echoReply(q *logview.Queue, text string, delay time.Duration) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}
	last := len(words) - 1
	q.PushItem(logview.Item{Text: words[0], Open: last > 0, Delay: delay})
	for i := 1; i <= last; i++ {
		q.PushItem(logview.Item{Text: " " + words[i], Append: true, Open: i < last, Delay: echoWordDelay})
	}
}

func (a *chatApp) draw(s editor.Surface) {
	a.view.Draw(s, chatTheme.View)
	a.box.Draw(s, chatTheme.Box, a.caretOn)
}

func (a *chatApp) statusLine() string {
	store := a.storeName
	if store == "" {
		store = "not saved"
	}
	return fmt.Sprintf("%s entries | %s queued | %s | log: %s | Ctrl+Q quit",
		humanize.Comma(int64(a.view.Len())), humanize.Comma(int64(a.view.Pending())), a.box.State(), store)
}

// close stops the producers and writes the log one last time.
func (a *chatApp) close() {
	a.cancel()
	a.wg.Wait()
	if a.view.Store != nil {
		a.view.Save()
	}
	if err := a.closeStore(); err != nil {
		log.Printf("Chat: closing log store: %v", err)
	}
}
