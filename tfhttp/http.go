package tfhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/brutella/hc/log"
	"github.com/gorilla/mux"

	"github.com/cloudkucooland/toofar-sonoff/platform"
)

// Server is the HTTP control channel
type Server struct {
	srv *http.Server
}

type accessoryView struct {
	Name     string `json:"name"`
	UUID     string `json:"uuid"`
	Index    int    `json:"index"`
	Hostname string `json:"hostname"`
	Relay    string `json:"relay"`
}

type powerView struct {
	On bool `json:"on"`
}

// NewRouter registers the control routes for a platform
func NewRouter(p platform.Control) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", homeHandler).Methods("GET")
	r.HandleFunc("/accessories", listHandler(p)).Methods("GET")
	r.HandleFunc("/accessories/{name}/power", getPowerHandler(p)).Methods("GET")
	r.HandleFunc("/accessories/{name}/power/{state:on|off}", setPowerHandler(p)).Methods("PUT", "POST")
	return r
}

// Startup starts serving on addr in the background
func Startup(addr string, p platform.Control, debug bool) *Server {
	var h http.Handler = NewRouter(p)
	if debug {
		h = debugMW(h)
	}

	s := &Server{
		srv: &http.Server{
			Addr:         addr,
			WriteTimeout: time.Second * 15,
			ReadTimeout:  time.Second * 15,
			IdleTimeout:  time.Second * 60,
			Handler:      h,
		},
	}

	go func() {
		log.Info.Printf("starting up HTTP control channel on %s", addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Info.Print(err)
		}
	}()

	return s
}

// Shutdown is called at process stop
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Info.Print(err)
	}
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	fmt.Fprint(w, `{ "status": "OK" }`)
}

func listHandler(p platform.Control) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accs := p.Accessories()
		out := make([]accessoryView, 0, len(accs))
		for _, a := range accs {
			out = append(out, accessoryView{
				Name:     a.DisplayName,
				UUID:     a.UUID,
				Index:    a.Context.Index,
				Hostname: a.Context.Hostname,
				Relay:    a.Context.Relay,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPowerHandler(p platform.Control) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		a, ok := p.GetAccessory(name)
		if !ok {
			http.Error(w, `{ "status": "unknown accessory" }`, http.StatusNotFound)
			return
		}

		on, err := a.Outlet().On.GetSync()
		if err != nil {
			log.Info.Printf("[%s] %s", name, err.Error())
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, powerView{On: on})
	}
}

func setPowerHandler(p platform.Control) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		name := vars["name"]
		a, ok := p.GetAccessory(name)
		if !ok {
			http.Error(w, `{ "status": "unknown accessory" }`, http.StatusNotFound)
			return
		}

		on := vars["state"] == "on"
		log.Info.Printf("setting [%s] to [%t] from HTTP", name, on)
		if err := a.Outlet().On.SetSync(on); err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, powerView{On: on})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Info.Print(err)
	}
}

func debugMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		dump, _ := httputil.DumpRequest(req, false)
		log.Debug.Print(string(dump))
		next.ServeHTTP(res, req)
	})
}
