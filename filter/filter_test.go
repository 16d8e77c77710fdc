package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/filter"
)

func TestSkipFlag(t *testing.T) {
	skip := filter.NewSkipFlag("skip_display")

	tests := []struct {
		name   string
		fields []core.Field
		pass   bool
	}{
		{"flag true", []core.Field{core.Bool("skip_display", true)}, false},
		{"flag false", []core.Field{core.Bool("skip_display", false)}, true},
		{"flag absent", nil, true},
		{"other flag", []core.Field{core.Bool("skip_file", true)}, true},
		{"truthy string", []core.Field{core.String("skip_display", "yes")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &core.Entry{Level: core.InfoLevel, Fields: tt.fields}
			assert.Equal(t, tt.pass, skip.Filter(e))
		})
	}
}

func TestMinLevel(t *testing.T) {
	f := filter.MinLevel(core.NoticeLevel)
	assert.False(t, f.Filter(&core.Entry{Level: core.InfoLevel}))
	assert.True(t, f.Filter(&core.Entry{Level: core.NoticeLevel}))
	assert.True(t, f.Filter(&core.Entry{Level: core.ErrorLevel}))
}

func TestChain_StopsAtFirstSuppression(t *testing.T) {
	var calls []string
	record := func(name string, pass bool) filter.Filter {
		return filter.Func(func(*core.Entry) bool {
			calls = append(calls, name)
			return pass
		})
	}

	chain := filter.Chain{record("a", true), record("b", false), record("c", true)}
	assert.False(t, chain.Filter(&core.Entry{}))
	assert.Equal(t, []string{"a", "b"}, calls)

	assert.True(t, filter.Chain{}.Filter(&core.Entry{}), "empty chain passes")
}

func TestQualModulePath_FromCaller(t *testing.T) {
	e := &core.Entry{Caller: core.CallerInfo{
		Defined:  true,
		Function: "example.com/app/store.(*Pool).Get",
	}}

	require.True(t, filter.QualModulePath{}.Filter(e))
	f, ok := e.Lookup(filter.ModuleKey)
	require.True(t, ok)
	assert.Equal(t, "example.com/app/store", f.Str)
}

func TestQualModulePath_FromStack(t *testing.T) {
	e := &core.Entry{}
	require.True(t, filter.QualModulePath{}.Filter(e))

	f, ok := e.Lookup(filter.ModuleKey)
	require.True(t, ok)
	assert.Equal(t, "github.com/philipp01105/krait/filter_test", f.Str)
}

func TestQualModulePath_KeepsExisting(t *testing.T) {
	e := &core.Entry{Fields: []core.Field{core.String(filter.ModuleKey, "preset")}}
	filter.QualModulePath{}.Filter(e)
	assert.Len(t, e.Fields, 1)
	assert.Equal(t, "preset", e.Fields[0].Str)
}

func TestParse(t *testing.T) {
	chain, err := filter.ParseAll([]string{"qual_module", "skip:skip_display"})
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.IsType(t, filter.QualModulePath{}, chain[0])
	assert.Equal(t, filter.NewSkipFlag("skip_display"), chain[1])

	_, err = filter.Parse("skip:")
	assert.Error(t, err)
	_, err = filter.Parse("bogus")
	assert.Error(t, err)
}
