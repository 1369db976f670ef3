package logview

import "time"

// Handle names an animation target. Tweens refer to targets by handle and
// resolve them every tick, so a target that disappears just drops its tweens.
type Handle uint64

// Target is something the animator can move and fade.
type Target interface {
	Translate(dy float64)
	SetOpacity(a float64)
}

// Easing maps progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

func EaseLinear(t float64) float64 { return t }

func EaseOutCubic(t float64) float64 {
	t1 := t - 1
	return t1*t1*t1 + 1
}

func EaseSmoothstep(t float64) float64 { return t * t * (3 - 2*t) }

type tweenKind int

const (
	tweenMove tweenKind = iota
	tweenFade
)

type tween struct {
	h        Handle
	kind     tweenKind
	from, to float64
	dur      time.Duration
	elapsed  time.Duration
	ease     Easing
	applied  float64 // eased progress already applied, moves only
}

// Animator is the animation table. It is driven by the view's update loop.
type Animator struct {
	Ease   Easing
	tweens []*tween
}

func NewAnimator() *Animator {
	return &Animator{Ease: EaseOutCubic}
}

// Move translates h by dy over d. Moves on the same target add up.
func (a *Animator) Move(h Handle, dy float64, d time.Duration) {
	a.tweens = append(a.tweens, &tween{h: h, kind: tweenMove, to: dy, dur: d, ease: a.ease()})
}

// Fade takes the opacity of h from one value to another over d, replacing
// any fade already running on h.
func (a *Animator) Fade(h Handle, from, to float64, d time.Duration) {
	a.cancel(h, tweenFade)
	a.tweens = append(a.tweens, &tween{h: h, kind: tweenFade, from: from, to: to, dur: d, ease: a.ease()})
}

func (a *Animator) ease() Easing {
	if a.Ease == nil {
		return EaseOutCubic
	}
	return a.Ease
}

// Tick advances every tween by dt. resolve returns nil for targets that no
// longer exist.
func (a *Animator) Tick(dt time.Duration, resolve func(Handle) Target) {
	live := a.tweens[:0]
	for _, tw := range a.tweens {
		t := resolve(tw.h)
		if t == nil {
			continue
		}
		tw.elapsed += dt
		p := 1.0
		if tw.dur > 0 && tw.elapsed < tw.dur {
			p = tw.ease(float64(tw.elapsed) / float64(tw.dur))
		}
		switch tw.kind {
		case tweenMove:
			t.Translate((p - tw.applied) * tw.to)
			tw.applied = p
		case tweenFade:
			t.SetOpacity(tw.from + (tw.to-tw.from)*p)
		}
		if tw.dur > 0 && tw.elapsed < tw.dur {
			live = append(live, tw)
		}
	}
	for i := len(live); i < len(a.tweens); i++ {
		a.tweens[i] = nil
	}
	a.tweens = live
}

// Cancel drops every tween of h without finishing it.
func (a *Animator) Cancel(h Handle) {
	a.cancel(h, -1)
}

func (a *Animator) cancel(h Handle, kind tweenKind) {
	live := a.tweens[:0]
	for _, tw := range a.tweens {
		if tw.h == h && (kind < 0 || tw.kind == kind) {
			continue
		}
		live = append(live, tw)
	}
	for i := len(live); i < len(a.tweens); i++ {
		a.tweens[i] = nil
	}
	a.tweens = live
}

// Busy reports whether h has any tween running.
func (a *Animator) Busy(h Handle) bool {
	for _, tw := range a.tweens {
		if tw.h == h {
			return true
		}
	}
	return false
}

// Len is the number of running tweens.
func (a *Animator) Len() int { return len(a.tweens) }
