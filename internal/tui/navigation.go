package tui

import (
	"errors"
	"strings"
)

type navState int

const (
	navIdle navState = iota
	navTransitioning
)

func (s navState) String() string {
	if s == navTransitioning {
		return "transitioning"
	}
	return "idle"
}

var errTransitioning = errors.New("a locale switch is already in progress")

// navigator owns the locale switch: idle -> transitioning (tree reloading under the new
// locale) -> idle. Mutating input is ignored while transitioning.
type navigator struct {
	state  navState
	locale string
	target string
}

func newNavigator(locale string) *navigator {
	return &navigator{locale: strings.TrimSpace(locale)}
}

// begin starts a switch to locale. started is false when locale is already active.
func (n *navigator) begin(locale string) (started bool, err error) {
	locale = strings.TrimSpace(locale)
	if n.state == navTransitioning {
		return false, errTransitioning
	}
	if locale == "" || locale == n.locale {
		return false, nil
	}
	n.state = navTransitioning
	n.target = locale
	return true, nil
}

// complete ends a switch. On failure the previous locale stays active.
func (n *navigator) complete(ok bool) {
	if n.state != navTransitioning {
		return
	}
	if ok {
		n.locale = n.target
	}
	n.target = ""
	n.state = navIdle
}

func (n *navigator) busy() bool { return n.state == navTransitioning }

// next returns the locale after the current one in locales (wrapping).
func (n *navigator) next(locales []string) string {
	if len(locales) == 0 {
		return n.locale
	}
	for i, l := range locales {
		if l == n.locale {
			return locales[(i+1)%len(locales)]
		}
	}
	return locales[0]
}
