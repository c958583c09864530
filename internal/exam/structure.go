package exam

import (
	"fmt"
	"strconv"
)

const (
	SectionRW   = "RW"
	SectionMath = "Math"

	DefaultRWDuration   = 1920
	DefaultMathDuration = 2100

	modulesPerSection = 2
)

// Structure is a test's section/module layout, e.g.
//
//	{"sections": {"RW": {"modules": [{"duration": 1920}, {"duration": 1920}]}, ...}}
type Structure struct {
	Sections map[string]Section `json:"sections" bson:"sections"`
}

type Section struct {
	Modules []Module `json:"modules" bson:"modules"`
}

type Module struct {
	Duration int `json:"duration,omitempty" bson:"duration,omitempty"` // seconds
}

var sectionDefaults = []struct {
	name     string
	duration int
}{
	{SectionRW, DefaultRWDuration},
	{SectionMath, DefaultMathDuration},
}

func DefaultStructure() *Structure {
	s := &Structure{Sections: map[string]Section{}}
	for _, d := range sectionDefaults {
		mods := make([]Module, modulesPerSection)
		for i := range mods {
			mods[i].Duration = d.duration
		}
		s.Sections[d.name] = Section{Modules: mods}
	}
	return s
}

// TimerKey is the per-module timer name, "RW-1" .. "Math-2".
func TimerKey(section string, module int) string {
	return section + "-" + strconv.Itoa(module)
}

// ResolveTimers always yields the four module budgets. Anything missing or
// non-positive takes the section default.
func ResolveTimers(s *Structure) map[string]int {
	if s == nil {
		s = DefaultStructure()
	}
	out := make(map[string]int, len(sectionDefaults)*modulesPerSection)
	for _, d := range sectionDefaults {
		sec := s.Sections[d.name]
		for i := 0; i < modulesPerSection; i++ {
			dur := d.duration
			if i < len(sec.Modules) && sec.Modules[i].Duration > 0 {
				dur = sec.Modules[i].Duration
			}
			out[TimerKey(d.name, i+1)] = dur
		}
	}
	return out
}

// Validate checks an admin-supplied structure. A nil structure is valid and
// means "use the defaults".
func (s *Structure) Validate() error {
	if s == nil {
		return nil
	}
	for name, sec := range s.Sections {
		if name != SectionRW && name != SectionMath {
			return fmt.Errorf("unknown section %q: %w", name, ErrInvalid)
		}
		if len(sec.Modules) != modulesPerSection {
			return fmt.Errorf("section %s must have exactly %d modules: %w", name, modulesPerSection, ErrInvalid)
		}
		for i, m := range sec.Modules {
			if m.Duration <= 0 {
				return fmt.Errorf("section %s module %d: duration must be positive: %w", name, i+1, ErrInvalid)
			}
		}
	}
	return nil
}
