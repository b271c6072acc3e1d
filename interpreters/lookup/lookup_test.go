package lookup

import (
	"context"
	"math"
	"testing"

	"github.com/Comcast/netparse/core"
	. "github.com/Comcast/netparse/util/testutil"
)

func TestLookup(t *testing.T) {
	ctx := context.Background()
	e := NewEvaluator()
	e.Silent = true

	m := core.NewOrderedMap()
	m.Set("mtu", 1500)
	bs := core.Bindings{
		"version": map[string]interface{}{"matches": []interface{}{"15.2"}},
		"eth0":    m,
		"empty":   "",
		"zero":    int64(0),
		"nan":     math.NaN(),
	}

	tests := []struct {
		src       string
		want      string
		undefined bool
	}{
		{src: `version.matches.0`, want: `"15.2"`},
		{src: `eth0.mtu`, want: `1500`},
		{src: `"quoted"`, want: `"quoted"`},
		{src: `42`, want: `42`},
		{src: `True`, want: `true`},
		{src: `not empty`, want: `true`},
		{src: `not missing`, want: `true`},
		{src: `not version`, want: `false`},
		{src: `not zero`, want: `true`},
		{src: `not nan`, want: `true`},
		{src: `missing`, undefined: true},
		{src: `version.matches.1`, undefined: true},
		{src: `empty.deeper`, undefined: true},
	}
	for _, tt := range tests {
		x, err := e.Exec(ctx, bs, tt.src, nil)
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if x.Undefined != tt.undefined {
			t.Errorf("%s: undefined %v", tt.src, x.Undefined)
			continue
		}
		if !tt.undefined {
			if got := JS(x.Value); got != tt.want {
				t.Errorf("%s: got %s", tt.src, got)
			}
		}
	}
}

func TestLookupUnsupported(t *testing.T) {
	e := NewEvaluator()
	e.Silent = true
	for _, src := range []string{`a + b`, `f(x)`, `a..b`, ``} {
		if _, err := e.Compile(context.Background(), src); err == nil {
			t.Errorf("%q: expected an error", src)
		}
	}
}
