package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/pprof"
)

func complain(w http.ResponseWriter, x interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`+"\n", fmt.Sprint(x))
}

func reply(w http.ResponseWriter, x interface{}) {
	js, err := json.Marshal(x)
	if err != nil {
		complain(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Printf("Service.HTTPServer warning on Write(): %v", err)
	}
}

// do runs an SOp and replies with it.
//
// A failed op is still returned in full, with the "err" property set.
func (s *Service) do(ctx context.Context, w http.ResponseWriter, op *SOp) {
	if err := op.Do(ctx, s); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if err = json.NewEncoder(w).Encode(op); err != nil {
			log.Printf("Service.HTTPServer warning on Encode(): %v", err)
		}
		return
	}
	reply(w, op)
}

// Handler returns the control plane.
//
//	POST /api          an SOp (JSON)
//	GET  /documents    the names of the loaded documents
//	POST /reload       reread the rule documents
//	GET  /goroutines   goroutine dump
//
// With websockets, /ws/api and /ws are added.
func (s *Service) Handler(ctx context.Context, websockets bool) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/goroutines", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pprof.Lookup("goroutine").WriteTo(w, 1)
	}))

	mux.Handle("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			complain(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		js, err := io.ReadAll(r.Body)
		if err != nil {
			complain(w, err, http.StatusBadRequest)
			return
		}
		if err := r.Body.Close(); err != nil {
			log.Printf("Service.HTTPServer warning on Body.Close(): %v", err)
		}

		var op SOp
		if err := json.Unmarshal(js, &op); err != nil {
			complain(w, err, http.StatusBadRequest)
			return
		}
		op.Id = r.Header.Get("X-Request-Id")
		s.do(r.Context(), w, &op)
	}))

	mux.Handle("/documents", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := &SOp{
			Documents: &DocumentsOp{
				Describe: r.URL.Query().Get("describe") == "true",
			},
		}
		s.do(r.Context(), w, op)
	}))

	mux.Handle("/reload", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			complain(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		s.do(r.Context(), w, &SOp{Reload: &ReloadOp{}})
	}))

	if websockets {
		s.WebSockets(ctx, mux)
	}

	return mux
}

// HTTPServer serves the control plane until the server fails.
func (s *Service) HTTPServer(ctx context.Context, port string, websockets bool) error {
	log.Printf("Service.HTTPServer starting on %s", port)
	return http.ListenAndServe(port, s.Handler(ctx, websockets))
}
