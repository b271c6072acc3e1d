package expr

import (
	"context"
	"testing"

	"github.com/Comcast/netparse/core"
	. "github.com/Comcast/netparse/util/testutil"
)

func eval(t *testing.T, bs core.Bindings, src string) *core.Evaluation {
	e := NewEvaluator()
	ctx := context.Background()
	compiled, err := e.Compile(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	x, err := e.Exec(ctx, bs, src, compiled)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func TestEval(t *testing.T) {
	bs := core.Bindings{
		"version": map[string]interface{}{
			"matches": []interface{}{"15.2"},
		},
		"mtu": 1500,
	}
	tests := []struct {
		src  string
		want string
	}{
		{`version.matches[0]`, `"15.2"`},
		{`mtu > 1000 and mtu < 9000`, `true`},
		{`"15.2" in version.matches`, `true`},
		{`interface_split("GigabitEthernet0/1", "name")`, `"GigabitEthernet"`},
		{`vlan_expand("10-11")`, `["10","11"]`},
		{`interface_range("eth0-1")`, `["eth0","eth1"]`},
	}
	for _, tt := range tests {
		x := eval(t, bs, tt.src)
		if x.Undefined {
			t.Errorf("%s: undefined", tt.src)
			continue
		}
		if got := JS(x.Value); got != tt.want {
			t.Errorf("%s: got %s", tt.src, got)
		}
	}
}

func TestEvalUndefined(t *testing.T) {
	for _, src := range []string{`missing`, `missing.deeper`, `not missing`} {
		if x := eval(t, core.Bindings{}, src); !x.Undefined {
			t.Errorf("%s: got %#v", src, x.Value)
		}
	}
}

func TestEvalOrderedMap(t *testing.T) {
	m := core.NewOrderedMap()
	m.Set("state", "up")
	x := eval(t, core.Bindings{"eth0": m}, `eth0.state`)
	if x.Value != "up" {
		t.Fatalf("got %#v", x.Value)
	}
}

func TestCompileError(t *testing.T) {
	if _, err := NewEvaluator().Compile(context.Background(), `a +`); err == nil {
		t.Fatal("expected an error")
	}
}

func TestFunctionError(t *testing.T) {
	_, err := NewEvaluator().Exec(context.Background(), nil, `vlan_expand("a-b")`, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestConditional(t *testing.T) {
	ctx := context.Background()
	ok, err := core.Conditional(ctx, NewEvaluator(), "{{ mtu == 1500 }}", core.Bindings{"mtu": 1500})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected true")
	}
}
