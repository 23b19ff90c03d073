// internal/app/features/realtime/handler.go
package realtime

import (
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"github.com/dalemusser/kanbanhub/internal/app/system/wsauth"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades authenticated requests to board-room connections.
type Handler struct {
	Dispatch *realtime.Dispatcher
	Tokens   wsauth.Verifier
	Upgrader websocket.Upgrader
	Buffer   int
	Log      *zap.Logger
}

// NewHandler builds the /ws handler. allowedOrigins follows
// wsauth.OriginChecker; buffer <= 0 uses realtime.DefaultSendBuffer.
func NewHandler(d *realtime.Dispatcher, tokens wsauth.Verifier, allowedOrigins []string, buffer int, logger *zap.Logger) *Handler {
	if buffer <= 0 {
		buffer = realtime.DefaultSendBuffer
	}
	return &Handler{
		Dispatch: d,
		Tokens:   tokens,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     wsauth.OriginChecker(allowedOrigins),
		},
		Buffer: buffer,
		Log:    logger,
	}
}

// ServeWS handles GET /ws. The token is checked before the upgrade so a
// bad handshake gets a plain 401 JSON response.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := wsauth.Authenticate(r, h.Tokens)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ws, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.Log.Debug("ws upgrade failed", zap.Error(err))
		return
	}

	c := realtime.NewClient(userID, h.Buffer)
	h.Dispatch.Connect(c)
	go c.WritePump(ws, h.Log)

	// The request context is cancelled when ServeWS returns, so joins in
	// flight are bounded by the connection's lifetime.
	ctx := r.Context()
	c.ReadPump(ws, func(frame []byte) {
		h.Dispatch.Handle(ctx, c, frame)
	}, h.Log)

	h.Dispatch.Disconnect(c)
}
