package reorder

import "time"

const (
	// IndentationWidth is the horizontal pointer travel (px) that equals one nesting level.
	IndentationWidth = 30
	// MaxDepth is the number of levels a menu may have (depths 0..MaxDepth-1).
	MaxDepth = 3

	// PromoteToRootThreshold separates a "return to root" drop on a root ancestor from a
	// genuine re-nest under it. Tuned by hand.
	PromoteToRootThreshold = 15

	AutoScrollThreshold  = 50
	AutoScrollSpeed      = 10
	AutoScrollInterval   = 16 * time.Millisecond
	CollapsedExpandDelay = 300 * time.Millisecond
	SaveDebounce         = 500 * time.Millisecond
)

// Config holds the geometry the projector and engine work with.
type Config struct {
	IndentationWidth       float64
	MaxDepth               int
	PromoteToRootThreshold float64
}

// DefaultConfig returns the package constants as a Config.
func DefaultConfig() Config {
	return Config{
		IndentationWidth:       IndentationWidth,
		MaxDepth:               MaxDepth,
		PromoteToRootThreshold: PromoteToRootThreshold,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.IndentationWidth <= 0 {
		c.IndentationWidth = d.IndentationWidth
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.PromoteToRootThreshold <= 0 {
		c.PromoteToRootThreshold = d.PromoteToRootThreshold
	}
	return c
}
