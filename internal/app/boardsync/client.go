package boardsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dalemusser/kanbanhub/internal/app/realtime"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Client talks to a kanbanhub server on behalf of one signed-in user.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Dialer  *websocket.Dialer
	Log     *zap.Logger

	// NewBackOff builds the reconnect policy for Subscribe.
	NewBackOff func() backoff.BackOff

	// OnFrame, when set, is called by Subscribe after each frame is applied.
	OnFrame func(f realtime.Frame, out Outcome)
}

// NewClient builds a client for baseURL (scheme and host, e.g.
// "http://localhost:8080") authenticating with token.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Dialer:  websocket.DefaultDialer,
		Log:     logger,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// StatusError is a non-2xx API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("kanbanhub: %d %s", e.Code, e.Message)
}

// LoadBoard implements Loader with GET /api/boards/{id}.
func (c *Client) LoadBoard(ctx context.Context, boardID primitive.ObjectID) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, http.MethodGet, "/api/boards/"+boardID.Hex(), nil, &snap)
	return snap, err
}

// MoveCard calls POST /api/cards/move.
func (c *Client) MoveCard(ctx context.Context, cardID, newListID primitive.ObjectID, newOrder int) (models.CardView, error) {
	req := map[string]any{
		"cardId":    cardID.Hex(),
		"newListId": newListID.Hex(),
		"newOrder":  newOrder,
	}
	var out struct {
		Card models.CardView `json:"card"`
	}
	err := c.do(ctx, http.MethodPost, "/api/cards/move", req, &out)
	return out.Card, err
}

// Move applies a drag locally through cache and confirms it with the server.
func (c *Client) Move(ctx context.Context, cache *Cache, cardID, newListID primitive.ObjectID, newOrder int) error {
	return cache.OptimisticMove(ctx, cardID, newListID, newOrder, func(ctx context.Context) error {
		_, err := c.MoveCard(ctx, cardID, newListID, newOrder)
		return err
	})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(buf)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// wsURL maps the base URL onto the /ws endpoint.
func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {c.Token}}.Encode()
	return u.String(), nil
}

// Subscribe joins the cache's board room and feeds every relayed frame
// into cache.ApplyEvent until ctx is done. Dropped connections are
// redialled with backoff and the board is reloaded after each reconnect,
// since frames sent while disconnected are lost. A 401 or 403 handshake
// stops it.
func (c *Client) Subscribe(ctx context.Context, cache *Cache) error {
	target, err := c.wsURL()
	if err != nil {
		return err
	}
	bo := backoff.WithContext(c.NewBackOff(), ctx)
	first := true

	op := func() error {
		ws, resp, err := c.Dialer.DialContext(ctx, target, nil)
		if err != nil {
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return backoff.Permanent(&StatusError{Code: resp.StatusCode, Message: "websocket handshake rejected"})
			}
			return err
		}
		defer ws.Close()

		join, err := realtime.Encode(realtime.EventJoinBoard, cache.BoardID().Hex())
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := ws.WriteMessage(websocket.TextMessage, join); err != nil {
			return err
		}
		if !first || !cache.Loaded() {
			if err := cache.Load(ctx); err != nil {
				c.Log.Warn("boardsync: reload after connect failed", zap.Error(err))
			}
		}
		first = false
		bo.Reset()

		// Unblock ReadMessage when ctx ends.
		stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
		defer stop()

		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return err
			}
			var f realtime.Frame
			if err := json.Unmarshal(msg, &f); err != nil {
				c.Log.Debug("boardsync: undecodable frame", zap.Error(err))
				continue
			}
			if f.Event == realtime.EventError {
				c.Log.Warn("boardsync: server error frame", zap.ByteString("data", f.Data))
			}
			out, err := cache.ApplyEvent(ctx, f)
			if err != nil {
				c.Log.Warn("boardsync: apply failed", zap.String("event", f.Event), zap.Error(err))
			}
			if c.OnFrame != nil {
				c.OnFrame(f, out)
			}
		}
	}

	notify := func(err error, wait time.Duration) {
		c.Log.Info("boardsync: connection lost, retrying", zap.Error(err), zap.Duration("wait", wait))
	}
	err = backoff.RetryNotify(op, bo, notify)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
