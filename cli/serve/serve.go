// Package serve runs forestryctl as a small long-lived HTTP service over
// a Store-backed trie: a bare *http.Server wired to promhttp.Handler,
// started and stopped under a zap.Logger.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/go-forestry/mpf/cli/flags"
	"github.com/go-forestry/mpf/cli/options"
	"github.com/go-forestry/mpf/pkg/forestry"
	"github.com/go-forestry/mpf/pkg/forestry/encoding"
)

// NewCommands returns the serve subcommand for forestryctl.
func NewCommands() []cli.Command {
	serveFlags := append(append([]cli.Flag{
		cli.StringFlag{Name: "listen", Value: ":8080", Usage: "HTTP listen address"},
		flags.DigestFlag{Name: "root", Usage: "hex-encoded root digest of the trie to serve"},
		cli.IntFlag{Name: "size", Usage: "number of key/value pairs under --root"},
	}, options.Store...), options.Debug)
	return []cli.Command{{
		Name:      "serve",
		Usage:     "serve a trie over HTTP, exposing prometheus metrics at /metrics",
		UsageText: "serve [--listen :8080] [--root <hex> --size <n>]",
		Action:    serveCmd,
		Flags:     serveFlags,
	}}
}

type server struct {
	mu  sync.Mutex
	tr  *forestry.Trie
	log *zap.Logger
}

func serveCmd(ctx *cli.Context) error {
	log, err := options.HandleLoggingParams(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer log.Sync() //nolint:errcheck

	store, err := options.GetStore(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	root := flags.DigestFromContext(ctx, "root")
	tr := forestry.Open(store, root, ctx.Int("size"))
	s := &server{tr: tr, log: log}
	trieSize.Set(float64(tr.Size()))

	mux := http.NewServeMux()
	mux.HandleFunc("/root", s.handleRoot)
	mux.HandleFunc("/proof", s.handleProof)
	mux.HandleFunc("/kv", s.handleKV)
	mux.Handle("/metrics", promhttp.Handler())

	addr := ctx.String("listen")
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving trie over http", zap.String("addr", addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return cli.NewExitError(err, 1)
		}
	case <-sigCtx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	return nil
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, map[string]interface{}{
		"root": s.tr.Hash().String(),
		"size": s.tr.Size(),
	})
}

func (s *server) handleProof(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	proof, err := s.tr.Prove([]byte(key))
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, forestry.ErrNotPresent) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data, err := encoding.ProofJSON(proof)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	proofBytes.Observe(float64(len(data)))
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *server) handleKV(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var body struct{ Key, Value string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		start := time.Now()
		s.mu.Lock()
		err := s.tr.Insert([]byte(body.Key), []byte(body.Value))
		size := s.tr.Size()
		s.mu.Unlock()
		insertDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, forestry.ErrAlreadyPresent) {
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}
		trieSize.Set(float64(size))
		s.log.Debug("inserted key", zap.String("key", body.Key))
		writeJSON(w, map[string]interface{}{"size": size})
	case http.MethodDelete:
		key := r.URL.Query().Get("key")
		s.mu.Lock()
		err := s.tr.Delete([]byte(key))
		size := s.tr.Size()
		s.mu.Unlock()
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, forestry.ErrNotPresent) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		trieSize.Set(float64(size))
		writeJSON(w, map[string]interface{}{"size": size})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintln(w, err)
	}
}
