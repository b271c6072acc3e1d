package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/Comcast/netparse/util/testutil"
)

const showVersion = `Cisco IOS Software, Version 15.2(4)M7
router1 uptime is 3 weeks, 2 days
System image file is "flash:c2900.bin"
`

func compileDoc(t *testing.T, src string) *Document {
	xs, is := Dwimjs(src).([]interface{})
	if !is {
		t.Fatalf("bad test document: %s", src)
	}
	doc, err := Compile(context.Background(), testEv, xs)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func runDoc(t *testing.T, src string, bs Bindings) *Execution {
	doc := compileDoc(t, src)
	if bs == nil {
		bs = NewBindings()
	}
	if _, have := bs["contents"]; !have {
		bs["contents"] = showVersion
	}
	x, err := doc.Run(context.Background(), testEv, bs)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func TestRunRegisterExport(t *testing.T) {
	x := runDoc(t, `[
  {"name":"version","pattern_match":{"regex":"Version (\\S+)"},"register":"version","export":true},
  {"pattern_match":{"regex":"^(?P<host>\\S+) uptime is (?P<uptime>.+)$"},"register":"uptime"},
  {"export_facts":{"hostname":"{{ uptime.host }}","image":"{{ image.matches.0 }}"}}
]`, nil)

	want := map[string]interface{}{
		"version": map[string]interface{}{
			"matches": []interface{}{"15.2(4)M7"},
		},
		"hostname": "router1",
		"image":    nil,
	}
	if diff := cmp.Diff(want, map[string]interface{}(x.Facts)); diff != "" {
		t.Fatal(diff)
	}

	if _, have := x.Bs["uptime"]; !have {
		t.Fatal("uptime not registered")
	}
}

func TestRunBindingsNotModified(t *testing.T) {
	bs := Bindings{"contents": showVersion}
	runDoc(t, `[{"pattern_match":{"regex":"Version"},"register":"v"}]`, bs)
	if _, have := bs["v"]; have {
		t.Fatal("given Bindings modified")
	}
}

func TestRunLoopMapping(t *testing.T) {
	x := runDoc(t, `[
  {"loop":{"b":2,"a":1},
   "json_template":{"template":[{"key":"k","value":"{{ item.key }}"},{"key":"v","value":"{{ item.value }}"}]},
   "register":"r"}
]`, nil)
	if want, got := `[{"k":"a","v":1},{"k":"b","v":2}]`, JS(x.Bs["r"]); got != want {
		t.Fatal(got)
	}
	if _, have := x.Bs["item"]; have {
		t.Fatal("loop variable leaked")
	}
}

func TestRunLoopList(t *testing.T) {
	bs := Bindings{
		"contents": "eth0 up\neth1 down\n",
		"names":    []interface{}{"eth0", "eth1", "eth9"},
	}
	x := runDoc(t, `[
  {"loop":"names","repeat_var":"n",
   "pattern_match":{"regex":"^\\S+ (\\w+)$","contents":"{{ n }} up"},
   "register":"states","export":true}
]`, bs)
	want := []interface{}{
		map[string]interface{}{"matches": []interface{}{"up"}},
		map[string]interface{}{"matches": []interface{}{"up"}},
		map[string]interface{}{"matches": []interface{}{"up"}},
	}
	if diff := cmp.Diff(want, x.Facts["states"]); diff != "" {
		t.Fatal(diff)
	}
}

func TestRunLoopEmpty(t *testing.T) {
	x := runDoc(t, `[
  {"loop":"missing","pattern_match":{"regex":"Version"},"register":"r","export":true}
]`, nil)
	if diff := cmp.Diff([]interface{}{}, x.Facts["r"]); diff != "" {
		t.Fatal(diff)
	}
}

func TestRunLoopFalsy(t *testing.T) {
	src := `[
  {"loop":"v","pattern_match":{"regex":"Version"},"register":"r","export":true}
]`
	for _, v := range []interface{}{false, "", 0, 0.0, []interface{}{}, map[string]interface{}{}} {
		x := runDoc(t, src, Bindings{"contents": showVersion, "v": v})
		if diff := cmp.Diff([]interface{}{}, x.Facts["r"]); diff != "" {
			t.Fatalf("%#v: %s", v, diff)
		}
	}
}

func TestRunLoopNotIterable(t *testing.T) {
	doc := compileDoc(t, `[
  {"loop":"s","pattern_match":{"regex":"Version"},"register":"r","export":true}
]`)
	x, err := doc.Run(context.Background(), testEv, Bindings{"contents": showVersion, "s": "abc"})
	if err == nil {
		t.Fatal("expected an error")
	}
	var ni *NotIterable
	if !errors.As(err, &ni) {
		t.Fatalf("got %T", err)
	}
	if x != nil {
		t.Fatal("got an Execution from a failed run")
	}
}

func TestRunWhenSkip(t *testing.T) {
	x := runDoc(t, `[
  {"name":"never","when":"missing","pattern_match":{"regex":"Version (\\S+)"},"register":"a","export":true},
  {"name":"always","when":"not missing","pattern_match":{"regex":"Version (\\S+)"},"register":"b","export":true},
  {"when":"{{ b }}","export_facts":{"c":"{{ b.matches.0 }}"}}
]`, nil)

	if _, have := x.Facts["a"]; have {
		t.Fatal("skipped directive exported")
	}
	if _, have := x.Facts["b"]; !have {
		t.Fatal("directive after a skip did not export")
	}
	if got := x.Facts["c"]; got != "15.2(4)M7" {
		t.Fatalf("c = %#v", got)
	}
	if len(x.Warnings) != 1 {
		t.Fatalf("warnings: %q", x.Warnings)
	}
}

func TestRunExportAs(t *testing.T) {
	bs := Bindings{
		"contents": "vlan 10 data\nvlan 20 voice\n",
	}
	x := runDoc(t, `[
  {"pattern_match":{"regex":"^vlan (?P<id>\\d+) (?P<name>\\w+)$","match_all":true},"register":"vlans"},
  {"loop":"vlans",
   "json_template":{"template":[{"key":"{{ item.id }}","object":[{"key":"name","value":"{{ item.name }}"}]}]},
   "register":"byid","export":true,"export_as":"dict"},
  {"pattern_match":{"regex":"Version"},"register":"one","export":true,"export_as":"list"}
]`, bs)

	if want, got := `{"10":{"name":"data"},"20":{"name":"voice"}}`, JS(x.Facts["byid"]); got != want {
		t.Fatal(got)
	}
	if want, got := `[{"matches":[]}]`, JS(x.Facts["one"]); got != want {
		t.Fatal(got)
	}
}

func TestRunExportFlatten(t *testing.T) {
	x := runDoc(t, `[
  {"json_template":{"template":[{"key":"os","value":"ios"}]},"export":true},
  {"loop":[1,2],"json_template":{"template":[{"key":"n{{ item }}","value":"{{ item }}"}]},"export":true}
]`, nil)
	want := map[string]interface{}{"os": "ios", "n1": 1, "n2": 2}
	if diff := cmp.Diff(want, map[string]interface{}(x.Facts)); diff != "" {
		t.Fatal(diff)
	}
}

func TestRunExportFactsLoop(t *testing.T) {
	x := runDoc(t, `[
  {"loop":["a","b"],"export_facts":{"{{ item }}":true,"last":"{{ item }}"},"register":"ignored"}
]`, nil)
	want := map[string]interface{}{"a": true, "b": true, "last": "b"}
	if diff := cmp.Diff(want, map[string]interface{}(x.Facts)); diff != "" {
		t.Fatal(diff)
	}
	if _, have := x.Bs["ignored"]; have {
		t.Fatal("export_facts registered")
	}
}

func TestRunBlock(t *testing.T) {
	x := runDoc(t, `[
  {"name":"system","block":[
    {"pattern_match":{"regex":"Version (\\S+)"},"register":"version"},
    {"json_template":{"template":[{"key":"v","value":"{{ version.matches.0 }}"}]},"register":"summary","export":true}
  ],"register":"system"},
  {"export_facts":{"inner":"{{ version }}","outer":"{{ system.summary.v }}"}}
]`, nil)

	if want, got := `{"v":"15.2(4)M7"}`, JS(x.Facts["summary"]); got != want {
		t.Fatal(got)
	}
	if got := x.Facts["inner"]; got != nil {
		t.Fatalf("nested register leaked: %#v", got)
	}
	if got := x.Facts["outer"]; got != "15.2(4)M7" {
		t.Fatalf("outer = %#v", got)
	}
}

func TestRunAlias(t *testing.T) {
	x := runDoc(t, `[
  {"Pattern_Group":[{"pattern_match":{"regex":"Version (\\S+)"},"register":"v"}],"register":"g","export":true}
]`, nil)
	if _, have := x.Facts["g"]; !have {
		t.Fatal("alias didn't run")
	}

	if _, err := Compile(context.Background(), testEv, []interface{}{
		map[string]interface{}{"BLOCK": []interface{}{}},
	}); err == nil {
		t.Fatal("canonical names shouldn't ignore case")
	}
}

func TestRunGreedy(t *testing.T) {
	bs := Bindings{
		"contents": "interface eth0\n mtu 1500\ninterface eth1\n mtu 9000\n",
	}
	x := runDoc(t, `[
  {"pattern_match":{"regex":"^interface","match_all":true,"match_greedy":true},"register":"sections","export":true},
  {"pattern_match":{"regex":"^interface","match_greedy":true},"register":"whole","export":true}
]`, bs)
	want := []interface{}{
		"interface eth0\n mtu 1500\n",
		"interface eth1\n mtu 9000\n",
	}
	if diff := cmp.Diff(want, x.Facts["sections"]); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]interface{}{bs["contents"]}, x.Facts["whole"]); diff != "" {
		t.Fatal(diff)
	}
}

func TestRunNamedPatterns(t *testing.T) {
	bs := Bindings{
		"contents": "ip address 192.168.1.10 255.255.255.0\n",
	}
	x := runDoc(t, `[
  {"pattern_match":{"regex":"address {{ IPV4 }}"},"register":"addr","export":true}
]`, bs)
	if x.Facts["addr"] == nil {
		t.Fatal("no match")
	}
}

func TestRunNoEvaluator(t *testing.T) {
	doc := compileDoc(t, `[{"pattern_match":{"regex":"x"}}]`)
	if _, err := doc.Run(context.Background(), nil, nil); err != NoEvaluator {
		t.Fatalf("got %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	doc := compileDoc(t, `[{"pattern_match":{"regex":"x"}}]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := doc.Run(ctx, testEv, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
}

func TestInterfacesDocument(t *testing.T) {
	ctx := context.Background()
	doc, err := InterfacesDocument(ctx, testEv)
	if err != nil {
		t.Fatal(err)
	}
	x, err := doc.Run(ctx, testEv, Bindings{"contents": InterfacesText})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"interfaces":{"eth0":{"state":"up","mtu":1500},"eth1":{"state":"down","mtu":9000},"lo":{"state":"up","mtu":65536}}}`
	if got := JS(x.Facts); got != want {
		t.Fatal(got)
	}
}
