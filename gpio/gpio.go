// Package gpio provides a boolean signal line, used to carry interrupt
// requests from a peripheral to whatever consumes them.
package gpio

// Line is a single level-sensitive signal.
type Line struct {
	level     bool
	rising    int
	listeners []func(level bool)
}

// Set drives the line to a level. Listeners are notified only when the
// level changes.
func (line *Line) Set(level bool) {
	if line.level == level {
		return
	}

	line.level = level
	if level {
		line.rising++
	}

	for _, listener := range line.listeners {
		listener(level)
	}
}

// IsSet returns the current level of the line.
func (line *Line) IsSet() bool {
	return line.level
}

// Toggle inverts the line level.
func (line *Line) Toggle() {
	line.Set(!line.level)
}

// Connect adds a listener called on every level change.
func (line *Line) Connect(listener func(level bool)) {
	line.listeners = append(line.listeners, listener)
}

// Rising returns the number of low to high transitions seen.
func (line *Line) Rising() int {
	return line.rising
}
