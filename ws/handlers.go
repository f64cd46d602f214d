// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkarimoff/votelive/engine"
	"github.com/dkarimoff/votelive/middleware"
	"github.com/dkarimoff/votelive/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Voting links are shared openly; origin checks would only break
	// kiosk displays on other hosts.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler serves the two realtime endpoints of an event link.
type Handler struct {
	hub *Hub
	eng *engine.Engine
}

func NewHandler(hub *Hub, eng *engine.Engine) *Handler {
	return &Handler{hub: hub, eng: eng}
}

func (c *client) sendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *client) configureRead() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// ServeVote handles GET /ws/vote/{link}: the bidirectional voter
// channel. On connect the client receives the current candidate and
// live tally; afterwards it may send cast_vote commands. Receipts and
// rejections go only to the connection that sent the command.
func (h *Handler) ServeVote(w http.ResponseWriter, r *http.Request) {
	link := r.PathValue("link")

	ev, err := h.eng.EventByLink(link)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}
	if ev.Status == models.StatusArchived {
		middleware.ErrorResponse(w, http.StatusForbidden, "Event is archived")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	ip := middleware.GetClientIP(r)

	c := newClient(conn)
	h.hub.add(h.hub.voters, link, c)
	go c.writePump()
	defer h.hub.remove(h.hub.voters, link, c)

	if cc, err := h.eng.CurrentCandidateSnapshot(ev.ID); err == nil {
		c.sendJSON(models.Envelope{Type: models.MsgCurrentCandidate, Data: cc})
		if cc.Candidate != nil {
			if tally, err := h.eng.Tally(ev.ID, cc.Candidate.ID); err == nil {
				c.sendJSON(models.Envelope{Type: models.MsgTallyUpdate, Data: tally})
			}
		}
	}

	c.configureRead()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("voter connection closed", "link", link, "error", err)
			}
			return
		}

		var cmd models.VoteCommand
		if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Type != models.MsgCastVote {
			c.sendJSON(models.ErrorMessage{Type: models.MsgError, Message: "Unknown command"})
			continue
		}

		identity := models.VoterIdentity{
			Nonce:    cmd.Nonce,
			DeviceID: cmd.DeviceID,
			IP:       ip,
		}
		receipt, err := h.eng.CastVote(ev.ID, identity, cmd.VoteType, cmd.CandidateID)
		if err != nil {
			c.sendJSON(models.ErrorMessage{Type: models.MsgError, Message: engine.ClientMessage(err)})
			continue
		}
		c.sendJSON(receipt)
	}
}

// ServeDisplay handles GET /ws/display/{link}: the one-way projection
// channel. The client gets a full snapshot on connect and after every
// server-side mutation; sending the text "update" requests a fresh
// snapshot for that connection alone.
func (h *Handler) ServeDisplay(w http.ResponseWriter, r *http.Request) {
	link := r.PathValue("link")

	ev, err := h.eng.EventByLink(link)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(conn)
	h.hub.add(h.hub.displays, link, c)
	go c.writePump()
	defer h.hub.remove(h.hub.displays, link, c)

	if du, err := h.eng.DisplaySnapshot(ev.ID); err == nil {
		c.sendJSON(du)
	}

	c.configureRead()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if strings.TrimSpace(string(raw)) == "update" {
			if du, err := h.eng.DisplaySnapshot(ev.ID); err == nil {
				c.sendJSON(du)
			}
		}
	}
}
