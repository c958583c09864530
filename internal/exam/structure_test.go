package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTimers(t *testing.T) {
	cases := []struct {
		name string
		in   *Structure
		want map[string]int
	}{
		{"nil structure", nil, map[string]int{"RW-1": 1920, "RW-2": 1920, "Math-1": 2100, "Math-2": 2100}},
		{"empty sections", &Structure{}, map[string]int{"RW-1": 1920, "RW-2": 1920, "Math-1": 2100, "Math-2": 2100}},
		{
			"partial",
			&Structure{Sections: map[string]Section{
				SectionMath: {Modules: []Module{{Duration: 1800}}},
			}},
			map[string]int{"RW-1": 1920, "RW-2": 1920, "Math-1": 1800, "Math-2": 2100},
		},
		{
			"full override",
			&Structure{Sections: map[string]Section{
				SectionRW:   {Modules: []Module{{Duration: 10}, {Duration: 20}}},
				SectionMath: {Modules: []Module{{Duration: 30}, {Duration: 40}}},
			}},
			map[string]int{"RW-1": 10, "RW-2": 20, "Math-1": 30, "Math-2": 40},
		},
		{
			"negative falls back",
			&Structure{Sections: map[string]Section{
				SectionRW: {Modules: []Module{{Duration: -5}, {Duration: 0}}},
			}},
			map[string]int{"RW-1": 1920, "RW-2": 1920, "Math-1": 2100, "Math-2": 2100},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveTimers(tc.in)
			assert.Equal(t, tc.want, got)
			for _, v := range got {
				assert.Positive(t, v)
			}
		})
	}
}

func TestStructureValidate(t *testing.T) {
	var nilStructure *Structure
	assert.NoError(t, nilStructure.Validate())
	assert.NoError(t, DefaultStructure().Validate())

	bad := []*Structure{
		{Sections: map[string]Section{"Science": {Modules: []Module{{Duration: 60}, {Duration: 60}}}}},
		{Sections: map[string]Section{SectionRW: {Modules: []Module{{}}}}},
		{Sections: map[string]Section{SectionMath: {Modules: []Module{{Duration: 1}, {Duration: -1}}}}},
		{Sections: map[string]Section{SectionMath: {Modules: []Module{{Duration: 1}, {Duration: 0}}}}},
		{Sections: map[string]Section{SectionRW: {Modules: []Module{{}, {}}}}},
	}
	for _, s := range bad {
		assert.ErrorIs(t, s.Validate(), ErrInvalid)
	}
}
