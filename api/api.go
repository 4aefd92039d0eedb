package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/dinghy-sim/api/model"
	"github.com/a-bouts/dinghy-sim/flow"
	"github.com/a-bouts/dinghy-sim/sim"
	"github.com/a-bouts/dinghy-sim/vector"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/profile"
)

const maxTicks = 3600

type server struct {
	cpuprofile bool
	c          *sim.Clock
}

func InitServer(cpuprofile bool, c *sim.Clock) *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	s := server{cpuprofile: cpuprofile, c: c}

	api := router.PathPrefix("/").Subrouter()
	api.HandleFunc("/sim/-/healthz", s.healthz).Methods(http.MethodGet)

	apiV1 := router.PathPrefix("/sim/api/v1").Subrouter()
	apiV1.HandleFunc("/state", s.state).Methods(http.MethodGet)
	apiV1.HandleFunc("/status", s.status).Methods(http.MethodGet)
	apiV1.HandleFunc("/log", s.decisionLog).Methods(http.MethodGet)
	apiV1.HandleFunc("/events", s.events).Methods(http.MethodGet)
	apiV1.HandleFunc("/course", s.course).Methods(http.MethodGet)
	apiV1.HandleFunc("/boats/{id}/track", s.track).Methods(http.MethodGet)
	apiV1.HandleFunc("/flow/{x}/{y}", s.flowAt).Methods(http.MethodGet)
	apiV1.HandleFunc("/tick", s.tick).Methods(http.MethodPost)
	apiV1.HandleFunc("/start", s.start).Methods(http.MethodPost)
	apiV1.HandleFunc("/stop", s.stop).Methods(http.MethodPost)
	apiV1.HandleFunc("/reset", s.reset).Methods(http.MethodPost)
	apiV1.HandleFunc("/marks/{index}", s.moveMark).Methods(http.MethodPut)

	return router
}

// Handler adds access logs and CORS headers for the browser display.
func Handler(router *mux.Router, origins []string) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.CombinedLoggingHandler(log.StandardLogger().WriterLevel(log.DebugLevel), cors(router))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status string `json:"status"`
	}
	writeJSON(w, health{Status: "Ok"})
}

func (s *server) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.c.Snapshot())
}

func (s *server) status(w http.ResponseWriter, r *http.Request) {
	st := model.Status{Running: s.c.Running(), Seconds: s.c.Seconds()}
	if err := s.c.Err(); err != nil {
		st.Error = err.Error()
	}
	writeJSON(w, st)
}

func (s *server) decisionLog(w http.ResponseWriter, r *http.Request) {
	entries := s.c.Log()
	if boat := r.URL.Query().Get("boat"); boat != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Boat == boat {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	writeJSON(w, entries)
}

func (s *server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	ch, unsub := s.c.Subscribe(ctx)
	defer unsub()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			b, _ := json.Marshal(ev)
			fmt.Fprintf(w, "event: tick\n")
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}

func (s *server) course(w http.ResponseWriter, r *http.Request) {
	marks, legs := s.c.Course()
	writeJSON(w, model.Course{Marks: marks, Legs: legs})
}

func (s *server) track(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	points, ok := s.c.Track(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, model.Track{Boat: id, Points: points})
}

func parseLocation(vars map[string]string) (vector.Location, error) {
	x, err := strconv.ParseFloat(vars["x"], 64)
	if err != nil {
		return vector.Location{}, err
	}
	y, err := strconv.ParseFloat(vars["y"], 64)
	if err != nil {
		return vector.Location{}, err
	}
	return vector.Location{X: x, Y: y}, nil
}

func (s *server) flowAt(w http.ResponseWriter, r *http.Request) {
	l, err := parseLocation(mux.Vars(r))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	wind, water, err := s.c.FlowAt(l)
	if errors.Is(err, flow.ErrNoFlow) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Debugf("Flow (%.1f,%.1f) : wind %.1f° %.1f kt", l.X, l.Y, wind.Angle.Bearing360(), wind.Speed)
	writeJSON(w, model.Flow{Location: l, Wind: wind, Water: water})
}

func (s *server) tick(w http.ResponseWriter, r *http.Request) {
	if s.cpuprofile {
		defer profile.Start().Stop()
	}

	t := model.Tick{Count: 1}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if t.Count < 1 || t.Count > maxTicks {
		http.Error(w, fmt.Sprintf("count must be within [1, %d]", maxTicks), http.StatusBadRequest)
		return
	}

	fields := log.Fields{"action": "tick", "count": t.Count}
	if ip, err := getIp(r); err == nil {
		fields["IP"] = ip
	}
	requestLogger := log.WithFields(fields)

	for i := 0; i < t.Count; i++ {
		if err := s.c.Tick(); err != nil {
			requestLogger.WithError(err).Warn("Tick failed")
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
	}
	requestLogger.Debugf("Now at %.0fs", s.c.Seconds())
	writeJSON(w, s.c.Snapshot())
}

func (s *server) start(w http.ResponseWriter, r *http.Request) {
	if err := s.c.Start(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.status(w, r)
}

func (s *server) stop(w http.ResponseWriter, r *http.Request) {
	s.c.Stop()
	s.status(w, r)
}

func (s *server) reset(w http.ResponseWriter, r *http.Request) {
	s.c.Reset()
	writeJSON(w, s.c.Snapshot())
}

func (s *server) moveMark(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var l vector.Location
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.c.MoveMark(index, l); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.course(w, r)
}

func getIp(r *http.Request) (string, error) {
	//Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}

	//Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		netIP := net.ParseIP(strings.TrimSpace(ip))
		if netIP != nil {
			return strings.TrimSpace(ip), nil
		}
	}

	//Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}
	return "", fmt.Errorf("no valid ip found")
}
