// Package oauth runs the loopback HTTP server that receives the Google
// authorization redirect, and opens the consent page in a browser.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// CallbackPath is the path the authorization server redirects to.
const CallbackPath = "/callback"

// Result is the outcome of one redirect.
type Result struct {
	Code string
	Err  error
}

// CallbackServer accepts a single OAuth redirect on 127.0.0.1.
// Only the first redirect counts; later ones are answered but ignored.
type CallbackServer struct {
	mu            sync.Mutex
	port          int
	expectedState string
	results       chan Result
	server        *http.Server
	listener      net.Listener
}

// NewCallbackServer creates a callback server for the given port and state.
// Port 0 picks a free port on Start.
func NewCallbackServer(port int, expectedState string) *CallbackServer {
	return &CallbackServer{
		port:          port,
		expectedState: expectedState,
		results:       make(chan Result, 1),
	}
}

// Start listens and serves in the background.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("callback server already started")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)
	s.listener = listener
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deliver(Result{Err: err})
		}
	}()
	return nil
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()

	var res Result
	switch {
	case q.Get("error") != "":
		res.Err = fmt.Errorf("authorization denied: %s %s", q.Get("error"), q.Get("error_description"))
	case q.Get("state") != s.expectedState:
		res.Err = errors.New("authorization failed: state mismatch")
	case q.Get("code") == "":
		res.Err = errors.New("authorization failed: no code received")
	default:
		res.Code = q.Get("code")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.Err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, page("Falha na autorização", res.Err.Error()))
	} else {
		_, _ = fmt.Fprint(w, page("Google Drive conectado", "Pode fechar esta janela e voltar ao terminal."))
	}
	s.deliver(res)
}

// deliver keeps only the first result.
func (s *CallbackServer) deliver(res Result) {
	select {
	case s.results <- res:
	default:
	}
}

// WaitForCode blocks until the redirect arrives or ctx ends.
func (s *CallbackServer) WaitForCode(ctx context.Context) (string, error) {
	select {
	case res := <-s.results:
		return res.Code, res.Err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

// Stop shuts the server down. It is safe to call more than once.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}

// Port returns the port the server listens on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the redirect URI registered for this server.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", s.Port(), CallbackPath)
}

func page(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>quill</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 15vh">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}

// OpenBrowser opens the default browser at url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
