package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/netparse/util/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
)

const showVersion = `Cisco IOS Software, Version 15.2(4)M7
router1 uptime is 3 weeks, 2 days
`

var testDocs = map[string]string{
	"1-version.json": `[
  {"pattern_match":{"regex":"Version (\\S+)"},"register":"version"},
  {"export_facts":{"os_version":"{{ version.matches.0 }}"}}
]`,
	"2-uptime.json": `[
  {"pattern_match":{"regex":"^(?P<host>\\S+) uptime is (?P<uptime>.+)$"},"register":"uptime"},
  {"export_facts":{"hostname":"{{ uptime.host }}"}}
]`,
}

func newTestService(t *testing.T, ctx context.Context) (*Service, string) {
	dir := testutil.WriteFiles(t, testDocs)
	cfg := DefaultConfig()
	cfg.Rules = dir
	cfg.Evaluator = "lookup"
	cfg.DB = filepath.Join(t.TempDir(), "facts.db")

	s, err := NewService(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := s.Close(context.Background()); err != nil {
			t.Error(err)
		}
	})
	return s, dir
}

// call POSTs the op to /api and decodes the returned op.
func call(t *testing.T, ts *httptest.Server, op string) (int, *SOp) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api", "application/json", strings.NewReader(op))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got SOp
	if err = json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, &got
}

func TestHTTPParse(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, _ := newTestService(t, ctx)
	ts := httptest.NewServer(s.Handler(ctx, false))
	defer ts.Close()

	req, _ := json.Marshal(map[string]interface{}{
		"parse": map[string]interface{}{
			"contents": showVersion,
			"host":     "r1",
		},
	})
	status, op := call(t, ts, string(req))
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, op.Err)
	}
	if op.Id == "" || op.Parse.At == "" {
		t.Fatal(JS(op))
	}
	want := map[string]interface{}{
		"os_version": "15.2(4)M7",
		"hostname":   "router1",
	}
	if diff := cmp.Diff(want, map[string]interface{}(op.Parse.Result.Facts)); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"1-version", "2-uptime"}, op.Parse.Result.Documents); diff != "" {
		t.Fatal(diff)
	}

	if _, op = call(t, ts, `{"getFacts":{"host":"r1"}}`); op.Err != "" {
		t.Fatal(op.Err)
	}
	if diff := cmp.Diff(want, map[string]interface{}(op.GetFacts.Facts)); diff != "" {
		t.Fatal(diff)
	}

	if _, op = call(t, ts, `{"hosts":{}}`); op.Err != "" {
		t.Fatal(op.Err)
	}
	if diff := cmp.Diff([]string{"r1"}, op.Hosts.Hosts); diff != "" {
		t.Fatal(diff)
	}

	// Only one document, replacing what's stored.
	req, _ = json.Marshal(map[string]interface{}{
		"parse": map[string]interface{}{
			"documents": []string{"2-uptime"},
			"contents":  showVersion,
			"host":      "r1",
			"replace":   true,
		},
	})
	if _, op = call(t, ts, string(req)); op.Err != "" {
		t.Fatal(op.Err)
	}
	if _, op = call(t, ts, `{"getFacts":{"host":"r1"}}`); op.Err != "" {
		t.Fatal(op.Err)
	}
	if want, got := `{"hostname":"router1"}`, JS(op.GetFacts.Facts); got != want {
		t.Fatal(got)
	}

	if _, op = call(t, ts, `{"remHost":"r1"}`); op.Err != "" {
		t.Fatal(op.Err)
	}
	if status, op = call(t, ts, `{"getFacts":{"host":"r1"}}`); status != http.StatusInternalServerError || op.Err == "" {
		t.Fatalf("status %d", status)
	}
}

func TestHTTPErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, _ := newTestService(t, ctx)
	ts := httptest.NewServer(s.Handler(ctx, false))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}

	if resp, err = http.Get(ts.URL + "/api"); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", resp.StatusCode)
	}

	status, op := call(t, ts, `{"parse":{"documents":["nope"],"contents":"x"}}`)
	if status != http.StatusInternalServerError {
		t.Fatalf("status %d", status)
	}
	if !strings.Contains(op.Err, "nope") {
		t.Fatal(op.Err)
	}

	if status, op = call(t, ts, `{}`); status != http.StatusInternalServerError || op.Err == "" {
		t.Fatalf("status %d", status)
	}
}

func TestDocumentsReload(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, dir := newTestService(t, ctx)
	ts := httptest.NewServer(s.Handler(ctx, false))
	defer ts.Close()

	names := func() []string {
		resp, err := http.Get(ts.URL + "/documents")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var op SOp
		if err = json.NewDecoder(resp.Body).Decode(&op); err != nil {
			t.Fatal(err)
		}
		return op.Documents.Names
	}

	reload := func() int {
		resp, err := http.Post(ts.URL+"/reload", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if diff := cmp.Diff([]string{"1-version", "2-uptime"}, names()); diff != "" {
		t.Fatal(diff)
	}

	testutil.WriteFileIn(t, dir, "3-image.yaml", `
- export_facts:
    image: none
`)
	if status := reload(); status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if diff := cmp.Diff([]string{"1-version", "2-uptime", "3-image"}, names()); diff != "" {
		t.Fatal(diff)
	}

	// A broken document leaves the loaded documents alone.
	testutil.WriteFileIn(t, dir, "4-broken.yaml", `- pattern_match: {regex: "("}`)
	if status := reload(); status != http.StatusInternalServerError {
		t.Fatalf("status %d", status)
	}
	if diff := cmp.Diff([]string{"1-version", "2-uptime", "3-image"}, names()); diff != "" {
		t.Fatal(diff)
	}
}

func TestWebSockets(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, _ := newTestService(t, ctx)
	ts := httptest.NewServer(s.Handler(ctx, true))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/api"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() map[string]interface{} {
		_, js, err := c.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]interface{}
		if err = json.Unmarshal(js, &m); err != nil {
			t.Fatal(err)
		}
		return m
	}

	if err = c.WriteMessage(websocket.TextMessage, []byte(`{"sub":"r1"}`)); err != nil {
		t.Fatal(err)
	}
	if got := read(); got["sub"] != "r1" {
		t.Fatal(got)
	}

	req, _ := json.Marshal(map[string]interface{}{
		"parse": map[string]interface{}{
			"documents": []string{"1-version"},
			"contents":  showVersion,
			"host":      "r1",
		},
	})
	if err = c.WriteMessage(websocket.TextMessage, req); err != nil {
		t.Fatal(err)
	}

	var parsed, replied bool
	for !(parsed && replied) {
		m := read()
		switch {
		case m["parsed"] != nil:
			parsed = true
			if want, got := `{"os_version":"15.2(4)M7"}`, JS(m["parsed"].(map[string]interface{})["result"].(map[string]interface{})["facts"]); got != want {
				t.Fatal(got)
			}
		case m["parse"] != nil:
			replied = true
			if m["id"] == nil || m["err"] != nil {
				t.Fatal(m)
			}
		default:
			t.Fatal(m)
		}
	}

	if err = c.WriteMessage(websocket.TextMessage, []byte(`{`)); err != nil {
		t.Fatal(err)
	}
	if got := read(); got["error"] == nil {
		t.Fatal(got)
	}
}

func TestSubs(t *testing.T) {
	var saw []string
	subs := NewSubs()
	subs.Add("r1", "a", func(op *ParseOp) { saw = append(saw, "a:"+op.Host) })
	subs.Add(AllHosts, "b", func(op *ParseOp) { saw = append(saw, "b:"+op.Host) })

	subs.Do("r1", &ParseOp{Host: "r1"})
	subs.Do("r2", &ParseOp{Host: "r2"})
	subs.Rem("r1", "a")
	subs.Do("r1", &ParseOp{Host: "r1"})
	subs.RemAll("b")
	subs.Do("r1", &ParseOp{Host: "r1"})

	if diff := cmp.Diff([]string{"a:r1", "b:r1", "b:r2", "b:r1"}, saw); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		topic string
		host  string
		docs  []string
		err   bool
	}{
		{"netparse/raw/r1/show_version", "r1", []string{"show_version"}, false},
		{"netparse/raw/r1/_all", "r1", nil, false},
		{"netparse/raw/r1", "", nil, true},
		{"netparse/raw/r1/a/b", "", nil, true},
		{"other/r1/a", "", nil, true},
		{"netparse/raw//a", "", nil, true},
	}
	for _, tt := range tests {
		host, docs, err := ParseTopic("netparse/raw/", tt.topic)
		if (err != nil) != tt.err {
			t.Errorf("%s: err %v", tt.topic, err)
			continue
		}
		if host != tt.host {
			t.Errorf("%s: host %q", tt.topic, host)
		}
		if diff := cmp.Diff(tt.docs, docs); diff != "" {
			t.Errorf("%s: %s", tt.topic, diff)
		}
	}
}

func TestWrappedError(t *testing.T) {
	inner := errors.New("parse failed")
	outer := errors.New("publish failed")
	err := NewWrappedError(outer, inner)
	if got, want := err.Error(), "publish failed after parse failed"; got != want {
		t.Fatal(got)
	}
	if !errors.Is(err, inner) || !errors.Is(err, outer) {
		t.Fatal("lost an error")
	}
	if NewWrappedError(outer, nil) != outer || NewWrappedError(nil, inner) != inner {
		t.Fatal("unexpected wrapping")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"svc.toml": `
http = ":9090"
rules = "/etc/netparse/rules"
timeout = "3s"

[mqtt]
broker = "tcp://localhost:1883"
out = "facts"
`,
	})
	cfg, err := LoadConfig(filepath.Join(dir, "svc.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP != ":9090" || cfg.Rules != "/etc/netparse/rules" {
		t.Fatal(JS(cfg))
	}
	if cfg.Timeout.Duration != 3*time.Second {
		t.Fatal(cfg.Timeout)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.Out != "facts" {
		t.Fatal(JS(cfg.MQTT))
	}
	// Defaults survive.
	if cfg.MQTT.In != "netparse/raw" || cfg.MQTT.KeepAlive.Duration != 10*time.Second {
		t.Fatal(JS(cfg.MQTT))
	}

	if _, err = LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestServiceCanceled(t *testing.T) {
	s, _ := newTestService(t, context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Parse(ctx, &ParseOp{Contents: showVersion, Host: "r1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
	hosts, err := s.Storage.Hosts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(hosts) != 0 {
		t.Fatalf("stored facts for %v", hosts)
	}
}
