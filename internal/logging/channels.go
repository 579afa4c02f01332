package logging

import (
	"sort"
	"sync"
)

// Line is one recorded log message.
type Line struct {
	Severity Severity
	Text     string
}

// ChannelLog keeps an append-only buffer of lines per channel.
// Any number of goroutines may log concurrently. When Next is set, every
// line is also forwarded to it after being recorded.
type ChannelLog struct {
	mu    sync.RWMutex
	lines map[string][]Line
	next  Logger
}

// NewChannelLog returns an empty ChannelLog that tees into next (which may be nil).
func NewChannelLog(next Logger) *ChannelLog {
	return &ChannelLog{
		lines: make(map[string][]Line),
		next:  next,
	}
}

// Log implements Logger.
func (c *ChannelLog) Log(sev Severity, channel, text string) {
	c.mu.Lock()
	c.lines[channel] = append(c.lines[channel], Line{Severity: sev, Text: text})
	c.mu.Unlock()

	if c.next != nil {
		c.next.Log(sev, channel, text)
	}
}

// Lines returns a copy of everything logged to channel.
func (c *ChannelLog) Lines(channel string) []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Line, len(c.lines[channel]))
	copy(out, c.lines[channel])
	return out
}

// Texts returns only the text of the lines logged to channel.
func (c *ChannelLog) Texts(channel string) []string {
	lines := c.Lines(channel)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// Channels returns every channel that has at least one line, sorted.
func (c *ChannelLog) Channels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.lines))
	for ch := range c.lines {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of lines logged to channel at severity sev.
func (c *ChannelLog) Count(channel string, sev Severity) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, l := range c.lines[channel] {
		if l.Severity == sev {
			n++
		}
	}
	return n
}
