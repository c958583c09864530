package exam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestionsCSV(t *testing.T) {
	sheet := `number,type,prompt,choices,correct,difficulty,topic,explanation
1,mcq,"Pick one, please","[""x"", ""y"", ""z""]",2,easy,grammar,
2,multi,Pick many,a || b || c,"[0, 2]",,,
3,,Default type,,  7 ,,,
`
	qs, err := ParseQuestionsCSV(strings.NewReader(sheet), "t1", SectionMath, 2)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.Equal(t, "Pick one, please", qs[0].Prompt)
	assert.Equal(t, []string{"x", "y", "z"}, qs[0].Choices)
	assert.Equal(t, "2", qs[0].Correct)
	assert.Equal(t, "easy", qs[0].Difficulty)
	assert.Equal(t, "t1", qs[0].TestID)
	assert.Equal(t, SectionMath, qs[0].Section)
	assert.Equal(t, 2, qs[0].Module)

	assert.Equal(t, "multi", qs[1].Type)
	assert.Equal(t, []string{"a", "b", "c"}, qs[1].Choices)
	assert.Equal(t, "[0, 2]", qs[1].Correct)
	assert.Equal(t, "medium", qs[1].Difficulty)

	assert.Equal(t, "mcq", qs[2].Type)
	assert.Nil(t, qs[2].Choices)
	assert.Equal(t, "  7 ", qs[2].Correct)
}

func TestParseQuestionsCSV_Rejects(t *testing.T) {
	header := "number,type,prompt,choices,correct\n"
	cases := map[string]struct {
		sheet   string
		section string
		module  int
	}{
		"bad number":  {header + "one,mcq,p,,1\n", SectionRW, 1},
		"bad type":    {header + "1,essay,p,,1\n", SectionRW, 1},
		"bad section": {header, "Science", 1},
		"bad module":  {header, SectionRW, 3},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuestionsCSV(strings.NewReader(tc.sheet), "t1", tc.section, tc.module)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseQuestionsCSV_Empty(t *testing.T) {
	qs, err := ParseQuestionsCSV(strings.NewReader(""), "t1", SectionRW, 1)
	require.NoError(t, err)
	assert.Empty(t, qs)
}
