// Package app wires the device pipeline, input mapping and viewer surfaces together.
package app

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/frudas24/devmirror/internal/control"
	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/web"
)

// RegisterRoutes wires API, stream and static handlers onto the mux. A
// non-empty staticDir serves the viewer from disk instead of the embedded copy.
func (a *App) RegisterRoutes(mux *http.ServeMux, staticDir string) {
	mux.HandleFunc("/login", a.handleLogin)
	mux.HandleFunc("/logout", a.handleLogout)
	mux.HandleFunc("/api/state", a.handleState)
	mux.HandleFunc("/api/apps", a.handleApps)
	mux.HandleFunc("/api/apps/launch", a.handleLaunch)
	mux.HandleFunc("/api/home", a.handleHome)
	mux.HandleFunc("/api/mode", a.handleMode)
	mux.HandleFunc("/mjpeg/screen", a.handleStream)
	mux.Handle("/ws/control", a.control)
	mux.Handle("/ws/signal", a.signaling)
	mux.HandleFunc("/favicon.ico", handleFavicon)
	mux.Handle("/", a.staticFileServer(staticDir))
}

type loginRequest struct {
	Password string `json:"password"`
}

type launchRequest struct {
	Pkg string `json:"pkg"`
}

type stateResponse struct {
	Connection    string      `json:"connection"`
	Mode          string      `json:"mode"`
	Preparedness  string      `json:"preparedness"`
	Foreground    string      `json:"foreground"`
	InputEnabled  bool        `json:"inputEnabled"`
	PromptShown   bool        `json:"promptShown"`
	Status        string      `json:"status"`
	StatusAt      time.Time   `json:"statusAt,omitempty"`
	Authenticated bool        `json:"authenticated"`
	Canvas        canvasSize  `json:"canvas"`
	Stats         statsReport `json:"stats"`
}

type canvasSize struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	NavBand int `json:"navBand"`
}

type statsReport struct {
	Frames       uint64 `json:"frames"`
	PullErrors   uint64 `json:"pullErrors"`
	DecodeErrors uint64 `json:"decodeErrors"`
	Profile      string `json:"profile"`
}

// handleLogin authenticates the session.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !a.session.Authenticate(req.Password) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// handleLogout clears authentication state.
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.session.Logout()
	writeJSON(w, map[string]bool{"ok": true})
}

// handleState returns the session snapshot and loop counters.
func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	snap := a.session.Snapshot()
	stats := a.acquirer.Stats()
	l := a.handoff.Layout()
	writeJSON(w, stateResponse{
		Connection:    snap.Connection.String(),
		Mode:          snap.Mode.String(),
		Preparedness:  snap.Preparedness.String(),
		Foreground:    snap.Foreground,
		InputEnabled:  snap.InputEnabled,
		PromptShown:   snap.PromptShown,
		Status:        snap.Status,
		StatusAt:      snap.StatusAt,
		Authenticated: snap.Authenticated,
		Canvas:        canvasSize{Width: l.CanvasWidth(), Height: l.CanvasHeight(), NavBand: l.NavBarHeight},
		Stats: statsReport{
			Frames:       stats.Frames,
			PullErrors:   stats.PullErrors,
			DecodeErrors: stats.DecodeErrors,
			Profile:      stats.LastProfile.String(),
		},
	})
}

// handleApps returns the cached user package list.
func (a *App) handleApps(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pkgs := a.apps.Inventory().Packages()
	if pkgs == nil {
		pkgs = []string{}
	}
	writeJSON(w, map[string][]string{"packages": pkgs})
}

// handleLaunch starts a package and switches to normal mode.
func (a *App) handleLaunch(w http.ResponseWriter, r *http.Request) {
	if !a.requirePost(w, r) {
		return
	}
	var req launchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Pkg == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	a.applyControl(w, r, control.Message{T: control.MsgLaunch, Pkg: req.Pkg})
}

// handleHome restarts the home package.
func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	if !a.requirePost(w, r) {
		return
	}
	a.applyControl(w, r, control.Message{T: control.MsgHome})
}

// handleMode toggles the interaction mode.
func (a *App) handleMode(w http.ResponseWriter, r *http.Request) {
	if !a.requirePost(w, r) {
		return
	}
	a.applyControl(w, r, control.Message{T: control.MsgToggleMode})
}

// handleStream serves MJPEG to authenticated viewers.
func (a *App) handleStream(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w) {
		return
	}
	a.stream.Handler(w, r)
}

// applyControl routes msg through the control router and writes the status reply.
func (a *App) applyControl(w http.ResponseWriter, r *http.Request, msg control.Message) {
	reply, ok := a.router.Apply(r.Context(), msg)
	if !ok {
		reply = a.router.Status("")
	}
	writeJSON(w, reply)
}

// requireAuth returns false and writes an error if the session is not authenticated.
func (a *App) requireAuth(w http.ResponseWriter) bool {
	if !a.session.IsAuthenticated() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// requirePost combines the auth check with a POST-only guard.
func (a *App) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if !a.requireAuth(w) {
		return false
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// staticFileServer returns a handler for static assets, preferring disk then embed.
func (a *App) staticFileServer(staticDir string) http.Handler {
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	embedded, err := web.StaticFS()
	if err != nil {
		a.logger.Warn("static assets unavailable", logging.Error(err))
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(embedded))
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// handleFavicon avoids noisy 404s for the default browser request.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
