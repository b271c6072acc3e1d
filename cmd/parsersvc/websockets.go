package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsControl is a WebSocket message that isn't an SOp.
type wsControl struct {
	// Sub subscribes the connection to the ParseOps for a host
	// (or "*" for every host).
	Sub string `json:"sub,omitempty"`

	Unsub string `json:"unsub,omitempty"`

	// Firehose, when true, sends every SOp processed by the
	// service to this connection.
	Firehose *bool `json:"firehose,omitempty"`
}

// WebSockets adds WebSockets support to the given mux.
//
// Each message on /ws/api is either a wsControl or an SOp.  Every SOp
// is answered with the processed SOp.  Subscriptions deliver
// {"parsed":ParseOp} messages.
func (s *Service) WebSockets(ctx context.Context, mux *http.ServeMux) {
	s.firehose = make(chan interface{}, 1024)

	var upgrader = websocket.Upgrader{} // use default options

	// Connections that want the firehose.
	conns := sync.Map{}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case x := <-s.firehose:
				conns.Range(func(k, v interface{}) bool {
					c := v.(chan interface{})
					select {
					case c <- x:
					default:
						log.Printf("%v firehose blocked", k)
					}
					return true
				})
			}
		}
	}()

	api := func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error", err)
			return
		}
		defer c.Close()

		ctl := make(chan bool)
		defer close(ctl)

		out := make(chan interface{}, 32)
		send := func(x interface{}) {
			select {
			case out <- x:
			default:
				log.Printf("websocket output blocked")
			}
		}

		id := uuid.New().String()
		defer conns.Delete(id)
		defer s.Subs.RemAll(id)

		// The only writer.
		go func() {
			for {
				select {
				case <-ctl:
					return
				case <-ctx.Done():
					return
				case x := <-out:
					js, err := json.Marshal(&x)
					if err != nil {
						log.Printf("websocket Marshal error %v on %#v", err, x)
						continue
					}
					if err = c.WriteMessage(websocket.TextMessage, js); err != nil {
						log.Println("websocket write:", err)
					}
				}
			}
		}()

		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Println("read error", err)
				}
				break
			}

			var wc wsControl
			if err := json.Unmarshal(message, &wc); err != nil {
				send(map[string]string{"error": fmt.Sprintf("can't parse: %v", err)})
				continue
			}

			switch {
			case wc.Sub != "":
				s.Subs.Add(wc.Sub, id, func(op *ParseOp) {
					send(map[string]*ParseOp{"parsed": op})
				})
				send(wc)
				continue
			case wc.Unsub != "":
				s.Subs.Rem(wc.Unsub, id)
				send(wc)
				continue
			case wc.Firehose != nil:
				if *wc.Firehose {
					conns.Store(id, out)
				} else {
					conns.Delete(id)
				}
				send(wc)
				continue
			}

			var op SOp
			if err := json.Unmarshal(message, &op); err != nil {
				send(map[string]string{"error": fmt.Sprintf("can't parse: %v", err)})
				continue
			}
			if err = op.Do(ctx, s); err != nil {
				log.Println("op.Do error", err)
				// Conveyed via op.Err.
			}
			send(&op)
		}
	}

	ui := func(w http.ResponseWriter, r *http.Request) {
		uiTemplate.Execute(w, r.Host)
	}

	mux.HandleFunc("/ws/api", api)
	mux.HandleFunc("/ws", ui)

	log.Printf("Service.HTTPServer has WebSockets")
}

// uiTemplate is a page for poking at /ws/api from a browser.
var uiTemplate = template.Must(template.New("").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>netparse</title>
<style>
body { margin: 2em; font-family: sans-serif }
textarea { width: 100%; height: 8em }
pre { border-bottom: 1px solid #ddd; margin: 0; padding: 0.5em 0 }
</style>
</head>
<body>
<textarea id="op">{"documents":{"describe":false}}</textarea>
<p>
<button id="connect">Connect</button>
<button id="submit">Submit</button>
<button id="disconnect">Disconnect</button>
</p>
<div id="log"></div>
<script>
(function() {
    var log = document.getElementById("log");
    var conn = null;

    function show(label, text) {
        var p = document.createElement("pre");
        p.textContent = label + " " + text;
        log.prepend(p);
    }

    document.getElementById("connect").addEventListener("click", function() {
        if (conn) return;
        conn = new WebSocket("ws://{{.}}/ws/api");
        conn.onopen = function() { show("connected", ""); };
        conn.onclose = function() { show("disconnected", ""); conn = null; };
        conn.onmessage = function(e) { show("<", e.data); };
    });

    document.getElementById("submit").addEventListener("click", function() {
        if (!conn) return;
        var op = document.getElementById("op").value;
        show(">", op);
        conn.send(op);
    });

    document.getElementById("disconnect").addEventListener("click", function() {
        if (conn) conn.close();
    });
})();
</script>
</body>
</html>
`))
