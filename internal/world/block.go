package world

import (
	"sort"
	"strings"
)

const (
	AirType    = "minecraft:air"
	PlayerType = "minecraft:player"
)

// Permutation is a block type plus its state values, e.g.
// furniture:oak_chair[minecraft:cardinal_direction=north].
type Permutation struct {
	TypeID string
	States map[string]string
}

func Air() Permutation { return Permutation{TypeID: AirType} }

// Block builds a permutation from alternating state name/value pairs.
func Block(typeID string, states ...string) Permutation {
	p := Permutation{TypeID: typeID}
	for i := 0; i+1 < len(states); i += 2 {
		p = p.WithState(states[i], states[i+1])
	}
	return p
}

func (p Permutation) IsAir() bool { return p.TypeID == "" || p.TypeID == AirType }

func (p Permutation) State(name string) (string, bool) {
	v, ok := p.States[name]
	return v, ok
}

// WithState returns a copy with one state replaced. The receiver is untouched.
func (p Permutation) WithState(name, value string) Permutation {
	states := make(map[string]string, len(p.States)+1)
	for k, v := range p.States {
		states[k] = v
	}
	states[name] = value
	return Permutation{TypeID: p.TypeID, States: states}
}

// StateNames returns the state names in sorted order.
func (p Permutation) StateNames() []string {
	names := make([]string, 0, len(p.States))
	for k := range p.States {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (p Permutation) String() string {
	if len(p.States) == 0 {
		return p.TypeID
	}
	var b strings.Builder
	b.WriteString(p.TypeID)
	b.WriteByte('[')
	for i, k := range p.StateNames() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p.States[k])
	}
	b.WriteByte(']')
	return b.String()
}
