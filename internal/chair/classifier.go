package chair

import "strings"

// Classifier decides whether a block type is breathable: open air, liquids,
// decorations, and thin fixtures recognised by a marker substring (sign, door,
// torch…). Breathable blocks leave headroom above a chair and mean a chair
// block has been destroyed or replaced.
type Classifier struct {
	allow   map[string]struct{}
	markers []string
}

func NewClassifier(breathable, markers []string) *Classifier {
	c := &Classifier{
		allow:   make(map[string]struct{}, len(breathable)),
		markers: append([]string(nil), markers...),
	}
	for _, id := range breathable {
		c.allow[id] = struct{}{}
	}
	return c
}

func (c *Classifier) IsBreathable(typeID string) bool {
	if _, ok := c.allow[typeID]; ok {
		return true
	}
	for _, m := range c.markers {
		if strings.Contains(typeID, m) {
			return true
		}
	}
	return false
}
