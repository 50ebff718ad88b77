package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"alightgram/model"
	"alightgram/repository"
	"alightgram/service"
	"alightgram/session"
)

const (
	writeWait     = 10 * time.Second
	maxFrameBytes = 64 << 10
	sendBuffer    = 64
)

type clientFrame struct {
	Type  string        `json:"type"`
	Token string        `json:"token,omitempty"`
	Event session.Event `json:"event,omitempty"`
	Arg   string        `json:"arg,omitempty"`
}

type stateFrame struct {
	Type  string       `json:"type"`
	View  session.View `json:"view"`
	Theme string       `json:"theme,omitempty"`
}

type eventFrame struct {
	Type    string          `json:"type"`
	Path    string          `json:"path"`
	Key     string          `json:"key,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	Deleted bool            `json:"deleted,omitempty"`
}

type authFrame struct {
	Type      string            `json:"type"`
	Principal *models.Principal `json:"principal"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// presenceLink is the presence tracker's view of one signed-in stretch of a
// socket.
type presenceLink struct {
	id     string
	signal chan bool
}

func (l *presenceLink) ID() string                { return l.id }
func (l *presenceLink) Connectivity() <-chan bool { return l.signal }

// wsConn is one websocket session. Only the read loop touches the session,
// the subscriptions and the presence link; the write loop owns the socket
// writes.
type wsConn struct {
	id      string
	g       *Gateway
	ws      *websocket.Conn
	session *session.Session
	log     *logrus.Entry
	ctx     context.Context
	cancel  context.CancelFunc
	send    chan interface{}

	subs         map[string]context.CancelFunc
	paths        []string
	token        string
	presence     *service.Presence
	stopPresence context.CancelFunc
}

func (g *Gateway) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	c := &wsConn{
		id:      id,
		g:       g,
		ws:      ws,
		session: session.New(id, g.cfg.Theme),
		log:     g.logger.WithFields(logrus.Fields{"component": "websocket", "conn_id": id}),
		ctx:     ctx,
		cancel:  cancel,
		send:    make(chan interface{}, sendBuffer),
		subs:    make(map[string]context.CancelFunc),
	}

	unsubscribe := c.session.Auth.Subscribe(func(p *models.Principal) {
		c.push(authFrame{Type: "auth", Principal: p})
	})

	go c.writeLoop()
	c.log.Info("Websocket session opened")
	c.syncView()
	c.readLoop()

	unsubscribe()
	c.close()
}

func (c *wsConn) readLoop() {
	ttl := c.g.cfg.HeartbeatTTL
	c.ws.SetReadLimit(maxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(ttl))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(ttl))
		c.heartbeat()
		c.reverify()
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("Websocket closed unexpectedly")
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(ttl))
		c.heartbeat()

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.fail("malformed frame")
			continue
		}
		c.handle(frame)
	}
}

func (c *wsConn) handle(frame clientFrame) {
	if frame.Type != "auth" && !c.reverify() {
		return
	}

	switch frame.Type {
	case "auth":
		principal, ok := c.g.authenticateRequest(c.ctx, "Bearer "+frame.Token)
		if !ok {
			c.fail("invalid token")
			return
		}
		c.token = frame.Token
		c.signIn(principal)
	case "navigate":
		if frame.Event == session.EventOpenProject && !c.canOpenProject(frame.Arg) {
			return
		}
		if _, err := c.session.View.Fire(frame.Event, frame.Arg); err != nil {
			c.fail(err.Error())
			return
		}
		c.syncView()
	case "signout":
		c.signOut()
	default:
		c.fail("unknown frame type")
	}
}

// reverify checks that the signed-in token is still valid and signs the
// session out when it has expired or been revoked.
func (c *wsConn) reverify() bool {
	cur := c.session.Auth.Current()
	if cur == nil {
		return true
	}
	if _, ok := c.g.authenticateRequest(c.ctx, "Bearer "+c.token); ok {
		return true
	}

	c.log.WithField("uid", cur.UID).Info("Websocket token no longer valid")
	c.fail("session expired")
	c.signOut()
	return false
}

// canOpenProject applies the project read rule before the view subscribes
// to the project's comments.
func (c *wsConn) canOpenProject(id string) bool {
	cur := c.session.Auth.Current()
	if cur == nil || id == "" {
		return true
	}

	_, err := c.g.visibility.GetProject(c.ctx, cur.UID, id)
	switch {
	case err == nil:
		return true
	case errors.Is(err, repository.ErrNotFound):
		c.fail("project not found")
	default:
		c.log.WithError(err).WithField("project_id", id).Error("Failed to load project")
		c.fail("failed to open project")
	}
	return false
}

func (c *wsConn) signIn(p *models.Principal) {
	cur := c.session.Auth.Current()
	if cur != nil && cur.UID == p.UID {
		c.session.Auth.SignIn(p)
		return
	}
	if cur != nil {
		c.endPresence(cur.UID)
	}

	c.session.Auth.SignIn(p)
	c.startPresence(p.UID)
	c.syncView()
	c.log.WithField("uid", p.UID).Info("Websocket session signed in")
}

func (c *wsConn) signOut() {
	cur := c.session.Auth.Current()
	if cur == nil {
		c.fail("not signed in")
		return
	}

	c.endPresence(cur.UID)
	c.token = ""
	c.session.Auth.SignOut()
	c.syncView()
	c.log.WithField("uid", cur.UID).Info("Websocket session signed out")
}

// startPresence treats the open socket as the connectivity signal for uid.
func (c *wsConn) startPresence(uid string) {
	ctx, cancel := context.WithCancel(c.ctx)
	link := &presenceLink{id: c.id, signal: make(chan bool, 1)}
	c.presence = c.g.presence.SetupPresence(ctx, uid, link)
	link.signal <- true
	c.stopPresence = cancel
	c.heartbeat()
}

func (c *wsConn) endPresence(uid string) {
	if c.presence == nil {
		return
	}
	if err := c.presence.SignOut(c.ctx); err != nil {
		c.log.WithError(err).WithField("uid", uid).Warn("Failed to mark user offline")
	}
	c.stopPresence()
	c.presence, c.stopPresence = nil, nil
}

func (c *wsConn) heartbeat() {
	var err error
	if c.presence != nil {
		err = c.presence.Heartbeat(c.ctx, c.g.cfg.HeartbeatTTL)
	} else {
		_, err = c.g.store.Heartbeat(c.ctx, c.id, c.g.cfg.HeartbeatTTL)
	}
	if err != nil {
		c.log.WithError(err).Warn("Heartbeat failed")
	}
}

// syncView moves the realtime subscriptions to the current view and reports
// the view to the client.
func (c *wsConn) syncView() {
	view := c.session.View.Current()
	next := view.Subscriptions()
	added, removed := session.Diff(c.paths, next)

	for _, path := range removed {
		if cancel, ok := c.subs[path]; ok {
			cancel()
			delete(c.subs, path)
		}
	}
	for _, path := range added {
		c.subscribe(path)
	}
	c.paths = next

	c.push(stateFrame{Type: "state", View: view, Theme: c.session.Theme})
}

func (c *wsConn) subscribe(path string) {
	ctx, cancel := context.WithCancel(c.ctx)
	events, err := c.g.store.Subscribe(ctx, path)
	if err != nil {
		cancel()
		c.log.WithError(err).WithField("path", path).Error("Subscribe failed")
		c.fail("subscribe failed: " + path)
		return
	}
	c.subs[path] = cancel

	go func() {
		for ev := range events {
			c.push(eventFrame{Type: "event", Path: ev.Path, Key: ev.Key, Value: ev.Value, Deleted: ev.Deleted})
		}
	}()
}

func (c *wsConn) fail(message string) {
	c.push(errorFrame{Type: "error", Message: message})
}

func (c *wsConn) push(frame interface{}) {
	select {
	case c.send <- frame:
	case <-c.ctx.Done():
	}
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(c.g.cfg.HeartbeatTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(frame); err != nil {
				c.log.WithError(err).Debug("Websocket write failed")
				_ = c.ws.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

// close runs the connection's deferred writes, which is how a dropped socket
// ends up offline.
func (c *wsConn) close() {
	if c.presence != nil {
		c.presence.Release()
		c.stopPresence()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.g.store.Disconnect(ctx, c.id); err != nil {
		c.log.WithError(err).Error("Failed to run disconnect writes")
	}

	c.session.Close()
	c.cancel()
	_ = c.ws.Close()
	c.log.Info("Websocket session closed")
}
