package webd

import (
	"context"
	"encoding/json"

	"github.com/olahol/melody"
	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/store"
)

type websocketAction string

const (
	websocketActionHello  websocketAction = "hello"
	websocketActionChange websocketAction = "change"
)

// broadfog is the message pushed to websocket clients.
// Clients redraw the tiles intersecting Region.
type broadfog struct {
	Action  websocketAction  `json:"action"`
	Kind    store.ChangeKind `json:"kind,omitempty"`
	Region  orb.Bound        `json:"region"`
	Tiles   int              `json:"tiles"`
	CanUndo bool             `json:"can_undo"`
	CanRedo bool             `json:"can_redo"`
}

func (s *WebDaemon) snapshotMessage(action websocketAction, c store.Change) ([]byte, error) {
	m := c.Map
	if m == nil {
		m = s.Store.Current()
	}
	region := c.Region
	if action == websocketActionHello {
		region = m.Bound()
	}
	return json.Marshal(broadfog{
		Action:  action,
		Kind:    c.Kind,
		Region:  region,
		Tiles:   m.Len(),
		CanUndo: s.Store.CanUndo(),
		CanRedo: s.Store.CanRedo(),
	})
}

// initMelody sets up the websocket handler and starts broadcasting
// store changes until ctx is done.
func (s *WebDaemon) initMelody(ctx context.Context) {
	s.melodyInstance = melody.New()

	s.melodyInstance.HandleConnect(func(session *melody.Session) {
		s.logger.Debug("Websocket connected", "remote", session.Request.RemoteAddr)
		b, err := s.snapshotMessage(websocketActionHello, store.Change{})
		if err != nil {
			s.logger.Error("Failed to marshal hello", "error", err)
			return
		}
		_ = session.Write(b)
	})

	// Clients only listen. Log and drop anything they send.
	s.melodyInstance.HandleMessage(func(session *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", session.Request.RemoteAddr, "message", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(session *melody.Session) {
		s.logger.Debug("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(session *melody.Session, e error) {
		s.logger.Warn("Websocket error", "remote", session.Request.RemoteAddr, "error", e)
	})

	changes := make(chan store.Change)
	sub := s.Store.SubscribeChanges(changes)
	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case c := <-changes:
				b, err := s.snapshotMessage(websocketActionChange, c)
				if err != nil {
					s.logger.Error("Failed to marshal change event", "error", err)
					continue
				}
				if err := s.melodyInstance.Broadcast(b); err != nil {
					s.logger.Warn("Failed to broadcast change event", "error", err)
				}
			case err := <-sub.Err():
				if err != nil {
					s.logger.Error("Change subscription failed", "error", err)
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}
