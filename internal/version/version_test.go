package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1.2.3", "1.2.3", false},
		{"v1.2.3", "1.2.3", false},
		{"1.2", "1.2.0", false},
		{"3.2.0-beta.1", "3.2.0-beta.1", false},
		{"", "", true},
		{"not-a-version", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestSortAndLatest(t *testing.T) {
	vs := []*Version{
		MustParse("2.0.0"),
		MustParse("1.0.0"),
		MustParse("3.0.0-beta.1"),
		MustParse("2.5.0"),
	}

	Sort(vs)
	assert.Equal(t, "1.0.0", vs[0].String())
	assert.Equal(t, "3.0.0-beta.1", vs[3].String())

	assert.Equal(t, "2.5.0", Latest(vs, false).String())
	assert.Equal(t, "3.0.0-beta.1", Latest(vs, true).String())
	assert.Equal(t, "3.0.0-beta.1", Latest([]*Version{MustParse("3.0.0-beta.1")}, false).String())
	assert.Nil(t, Latest(nil, false))
}

func TestPrereleaseSortsBeforeRelease(t *testing.T) {
	assert.Equal(t, -1, Compare(MustParse("3.2.0-beta.1"), MustParse("3.2.0")))
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("1.0.0", "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "[1.0.0, 2.0.0)", r.String())

	open, err := ParseRange("", "")
	require.NoError(t, err)
	assert.Equal(t, "[*, *)", open.String())

	_, err = ParseRange("2.0.0", "1.0.0")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = ParseRange("x", "")
	assert.Error(t, err)
}

func TestRange_Contains(t *testing.T) {
	r := MustRange("1.0.0", "2.0.0")

	assert.True(t, r.Contains(MustParse("1.0.0")), "lower bound is inclusive")
	assert.True(t, r.Contains(MustParse("1.9.9")))
	assert.False(t, r.Contains(MustParse("2.0.0")), "upper bound is exclusive")
	assert.False(t, r.Contains(MustParse("0.9.0")))
}

func TestRange_Crosses(t *testing.T) {
	tests := []struct {
		name     string
		r        Range
		from, to string
		want     bool
	}{
		{"overlaps start", MustRange("1.0.0", "2.0.0"), "1.2.0", "2.5.0", true},
		{"overlaps end", MustRange("1.5.0", "3.0.0"), "1.2.0", "2.5.0", true},
		{"inside", MustRange("1.3.0", "1.4.0"), "1.2.0", "2.5.0", true},
		{"lower equals to", MustRange("2.5.0", "3.0.0"), "1.2.0", "2.5.0", true},
		{"upper equals from", MustRange("1.0.0", "1.2.0"), "1.2.0", "2.5.0", false},
		{"entirely before", MustRange("0.1.0", "1.0.0"), "1.2.0", "2.5.0", false},
		{"entirely after", MustRange("2.6.0", "3.0.0"), "1.2.0", "2.5.0", false},
		{"unbounded", Range{}, "1.2.0", "2.5.0", true},
		{"downgrade never crosses", MustRange("1.0.0", "3.0.0"), "2.5.0", "1.2.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.Crosses(MustParse(tt.from), MustParse(tt.to))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRange_CompareLower(t *testing.T) {
	a := MustRange("1.0.0", "2.0.0")
	b := MustRange("1.5.0", "3.0.0")

	assert.Equal(t, -1, a.CompareLower(b))
	assert.Equal(t, 1, b.CompareLower(a))
	assert.Equal(t, -1, Range{}.CompareLower(a))
	assert.Equal(t, 0, Range{}.CompareLower(Range{}))
}
