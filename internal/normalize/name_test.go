package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"suffix and comma", "John Smith, MD", "john smith"},
		{"nil", nil, ""},
		{"number", 42, ""},
		{"float", 3.5, ""},
		{"title kept", "Dr. Jane Doe, MD", "dr. jane doe"},
		{"no title", "Dr Jon Roe", "dr jon roe"},
		{"surrounding space", "  Ann Lee  ", "ann lee"},
		{"md inside word", "AMDur Smith", "aur smith"},
		{"lowercase md kept", "md jones", "md jones"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestName_Idempotent(t *testing.T) {
	inputs := []string{"John Smith, MD", "Dr. Jane Doe, MD", "  Ann Lee", "ÉLODIE Martin"}
	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "input %q", in)
	}
}

func TestOptions_StripTitles(t *testing.T) {
	o := Options{StripTitles: true}

	assert.Equal(t, "jane doe", o.Name("Dr. Jane Doe, MD"))
	assert.Equal(t, "jon roe", o.Name("Dr Jon Roe"))
	assert.Equal(t, "drew carey", o.Name("Drew Carey"))
	assert.Equal(t, "j r r tolkien", o.Name("J.R.R. Tolkien"))
	assert.Equal(t, "", o.Name("Dr."))
	assert.Equal(t, "", o.Name(nil))
}

func TestOptions_Column(t *testing.T) {
	keys, empty := Options{}.Column([]any{"Jane Doe, MD", nil, "", 7, "Jon"})

	assert.Equal(t, []string{"jane doe", "", "", "", "jon"}, keys)
	assert.Equal(t, []int{1, 2, 3}, empty)
}
