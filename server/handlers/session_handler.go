package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"crowdmap/models/geocode"
	"crowdmap/models/site"
	"crowdmap/search"
	services "crowdmap/service"
)

// Client operations accepted on the session socket.
const (
	OP_QUERY           = "query"
	OP_SELECT_SITE     = "select_site"
	OP_SELECT_LOCATION = "select_location"
	OP_CLEAR           = "clear"
	OP_OPEN            = "open"
	OP_CLOSE           = "close"
)

// Server message types.
const (
	MSG_STATE         = "state"
	MSG_SITE_SELECTED = "site_selected"
	MSG_FLY_TO        = "fly_to"
	MSG_ERROR         = "error"
)

const (
	sessionWriteTimeout = 10 * time.Second
	sessionOutboxSize   = 64
	sessionReadLimit    = 4096
)

type ClientMessage struct {
	Op    string `json:"op"`
	Query string `json:"query,omitempty"`
	ID    string `json:"id,omitempty"`
}

type ServerMessage struct {
	Type     string               `json:"type"`
	State    *search.State        `json:"state,omitempty"`
	Site     *services.SiteDetail `json:"site,omitempty"`
	Location *geocode.Result      `json:"location,omitempty"`
	Lat      *float64             `json:"lat,omitempty"`
	Lng      *float64             `json:"lng,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// SessionHandler hosts one search.Session per websocket connection.
type SessionHandler struct {
	executor    search.QueryExecutor
	siteService *services.SiteService
	config      search.Config
	upgrader    websocket.Upgrader
}

// NewSessionHandler accepts browser connections from the handler's own host
// and from allowedOrigins. "*" allows any origin.
func NewSessionHandler(executor search.QueryExecutor, siteService *services.SiteService, config search.Config, allowedOrigins []string) *SessionHandler {
	return &SessionHandler{
		executor:    executor,
		siteService: siteService,
		config:      config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin.
		if origin == "" || allowed["*"] || allowed[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// ServeSession handles GET /v1/search/session.
func (h *SessionHandler) ServeSession(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[SessionHandler] Upgrade failed:", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(sessionReadLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan ServerMessage, sessionOutboxSize)
	writerDone := make(chan struct{})
	go h.writeLoop(conn, out, writerDone)

	send := func(m ServerMessage) {
		select {
		case out <- m:
		case <-ctx.Done():
		}
	}

	// Site details may wait on the weather provider, so they load beside
	// the read loop.
	var details sync.WaitGroup
	cfg := h.config
	cfg.OnSiteSelect = func(s site.Site) {
		details.Add(1)
		go func() {
			defer details.Done()
			detail, err := h.siteService.GetSiteDetail(ctx, s.ID)
			if err != nil {
				if ctx.Err() == nil {
					send(ServerMessage{Type: MSG_ERROR, Error: err.Error()})
				}
				return
			}
			send(ServerMessage{Type: MSG_SITE_SELECTED, Site: detail})
		}()
	}
	cfg.OnLocationSelect = func(l geocode.Result) {
		lat, lng := l.Lat(), l.Lng()
		send(ServerMessage{Type: MSG_FLY_TO, Location: &l, Lat: &lat, Lng: &lng})
	}

	session := search.NewSession(ctx, h.executor, cfg)
	session.Subscribe(func(st search.State) {
		send(ServerMessage{Type: MSG_STATE, State: &st})
	})
	initial := session.State()
	send(ServerMessage{Type: MSG_STATE, State: &initial})

	h.readLoop(ctx, conn, session, send)

	cancel()
	session.Close()
	details.Wait()
	close(out)
	<-writerDone
}

func (h *SessionHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *search.Session, send func(ServerMessage)) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("[SessionHandler] Read failed:", err)
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			send(ServerMessage{Type: MSG_ERROR, Error: "invalid message"})
			continue
		}
		h.apply(ctx, session, msg, send)
	}
}

func (h *SessionHandler) apply(ctx context.Context, session *search.Session, msg ClientMessage, send func(ServerMessage)) {
	switch msg.Op {
	case OP_QUERY:
		session.PerformSearch(msg.Query)
	case OP_SELECT_SITE:
		s, err := h.lookupSite(ctx, session.State(), msg.ID)
		if err != nil {
			send(ServerMessage{Type: MSG_ERROR, Error: err.Error()})
			return
		}
		session.SelectSite(*s)
	case OP_SELECT_LOCATION:
		for _, l := range session.State().Results.Locations {
			if l.ID == msg.ID {
				session.SelectLocation(l)
				return
			}
		}
		send(ServerMessage{Type: MSG_ERROR, Error: "unknown location " + msg.ID})
	case OP_CLEAR:
		session.ClearSearch()
	case OP_OPEN:
		session.OpenDropdown()
	case OP_CLOSE:
		session.CloseDropdown()
	default:
		send(ServerMessage{Type: MSG_ERROR, Error: "unknown op " + msg.Op})
	}
}

// lookupSite prefers the entry from the current results and falls back to
// the catalog.
func (h *SessionHandler) lookupSite(ctx context.Context, st search.State, id string) (*site.Site, error) {
	for _, s := range st.Results.Sites {
		if s.ID == id {
			return &s, nil
		}
	}
	return h.siteService.GetSite(ctx, id)
}

func (h *SessionHandler) writeLoop(conn *websocket.Conn, out <-chan ServerMessage, done chan<- struct{}) {
	defer close(done)
	broken := false
	for m := range out {
		if broken {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(sessionWriteTimeout))
		if err := conn.WriteJSON(m); err != nil {
			log.Println("[SessionHandler] Write failed:", err)
			broken = true
		}
	}
}
