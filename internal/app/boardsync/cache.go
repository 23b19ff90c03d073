// Package boardsync keeps a client-side copy of one board's lists and
// cards in step with the server.
//
// Realtime frames from other room members are relayed by the server
// without being checked against the database, so the cache treats them
// as hints: anything it cannot apply cleanly triggers a reload of the
// authoritative board through a Loader.
package boardsync

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Snapshot is the authoritative board as returned by GET /api/boards/{id}.
type Snapshot struct {
	Board models.BoardView  `json:"board"`
	Lists []models.ListView `json:"lists"`
}

// Loader fetches the authoritative state of a board.
type Loader interface {
	LoadBoard(ctx context.Context, boardID primitive.ObjectID) (Snapshot, error)
}

// Cache holds lists sorted by order, each with its cards sorted by order.
// It is safe for concurrent use.
type Cache struct {
	boardID primitive.ObjectID
	loader  Loader
	log     *zap.Logger

	mu     sync.Mutex
	board  models.BoardView
	lists  []models.ListView
	loaded bool
}

func NewCache(boardID primitive.ObjectID, loader Loader, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{boardID: boardID, loader: loader, log: logger}
}

// BoardID returns the board this cache tracks.
func (c *Cache) BoardID() primitive.ObjectID { return c.boardID }

// Load replaces the cached state with the authoritative board.
func (c *Cache) Load(ctx context.Context) error {
	snap, err := c.loader.LoadBoard(ctx, c.boardID)
	if err != nil {
		return err
	}
	c.Replace(snap)
	return nil
}

// Replace installs snap as the cached state.
func (c *Cache) Replace(snap Snapshot) {
	lists := make([]models.ListView, len(snap.Lists))
	for i, l := range snap.Lists {
		l.Cards = slices.Clone(l.Cards)
		sortCards(l.Cards)
		lists[i] = l
	}
	sortLists(lists)

	c.mu.Lock()
	c.board = snap.Board
	c.lists = lists
	c.loaded = true
	c.mu.Unlock()
}

// Loaded reports whether a snapshot has been installed.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Board returns the cached board header.
func (c *Cache) Board() models.BoardView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board
}

// Lists returns a copy of the cached lists and their cards.
func (c *Cache) Lists() []models.ListView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ListView, len(c.lists))
	for i, l := range c.lists {
		l.Cards = slices.Clone(l.Cards)
		out[i] = l
	}
	return out
}

// Card looks up a cached card by id.
func (c *Cache) Card(id primitive.ObjectID) (models.CardView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	li, ci := c.findCard(id)
	if li < 0 {
		return models.CardView{}, false
	}
	return c.lists[li].Cards[ci], true
}

// TasksByStatus returns cached cards with the given status, in list then
// card order.
func (c *Cache) TasksByStatus(status string) []models.CardView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []models.CardView{}
	for _, l := range c.lists {
		for _, card := range l.Cards {
			if card.Status == status {
				out = append(out, card)
			}
		}
	}
	return out
}

// Stats counts cached cards by status. Review counts as in progress.
type Stats struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s Stats
	for _, l := range c.lists {
		for _, card := range l.Cards {
			s.Total++
			switch card.Status {
			case models.StatusTodo:
				s.Todo++
			case models.StatusInProgress, models.StatusReview:
				s.InProgress++
			case models.StatusDone:
				s.Done++
			}
		}
	}
	return s
}

// AddList inserts l, or replaces the cached list with the same id.
func (c *Cache) AddList(l models.ListView) {
	l.Cards = slices.Clone(l.Cards)
	if l.Cards == nil {
		l.Cards = []models.CardView{}
	}
	sortCards(l.Cards)

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.findList(l.ID); i >= 0 {
		c.lists[i] = l
	} else {
		c.lists = append(c.lists, l)
	}
	sortLists(c.lists)
}

// UpdateList merges l's title and order into the cached list, keeping
// its cards unless l carries some. Reports false when the list is unknown.
func (c *Cache) UpdateList(l models.ListView) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.findList(l.ID)
	if i < 0 {
		return false
	}
	cur := &c.lists[i]
	cur.Title = l.Title
	cur.Order = l.Order
	if !l.UpdatedAt.IsZero() {
		cur.UpdatedAt = l.UpdatedAt
	}
	if l.Cards != nil {
		cur.Cards = slices.Clone(l.Cards)
		sortCards(cur.Cards)
	}
	sortLists(c.lists)
	return true
}

// RemoveList drops a list and its cards.
func (c *Cache) RemoveList(id primitive.ObjectID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.findList(id)
	if i < 0 {
		return false
	}
	c.lists = slices.Delete(c.lists, i, i+1)
	return true
}

// AddCard places card in the list named by card.ListID, replacing any
// cached copy. Reports false when that list is not cached.
func (c *Cache) AddCard(card models.CardView) bool {
	if card.ListID == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	li := c.findList(*card.ListID)
	if li < 0 {
		return false
	}
	c.removeCardLocked(card.ID)
	c.insertLocked(li, card)
	return true
}

// UpdateCard replaces a cached card. A changed ListID relocates it.
// Reports false when the card or its destination list is not cached.
func (c *Cache) UpdateCard(card models.CardView) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	li, ci := c.findCard(card.ID)
	if li < 0 {
		return false
	}
	dest := li
	if card.ListID != nil && *card.ListID != c.lists[li].ID {
		if dest = c.findList(*card.ListID); dest < 0 {
			return false
		}
	}
	if card.ListID == nil {
		card.ListID = c.lists[li].Cards[ci].ListID
	}
	c.lists[li].Cards = slices.Delete(c.lists[li].Cards, ci, ci+1)
	c.insertLocked(dest, card)
	return true
}

// RemoveCard drops a card from whichever list holds it.
func (c *Cache) RemoveCard(id primitive.ObjectID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeCardLocked(id)
}

// MoveCard takes a card out of its list and inserts it into newListID at
// newOrder, re-sorting the destination. Nothing changes when either the
// card or the destination is unknown.
func (c *Cache) MoveCard(cardID, newListID primitive.ObjectID, newOrder int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moveLocked(cardID, newListID, newOrder)
}

func (c *Cache) moveLocked(cardID, newListID primitive.ObjectID, newOrder int) bool {
	li, ci := c.findCard(cardID)
	dest := c.findList(newListID)
	if li < 0 || dest < 0 {
		return false
	}
	card := c.lists[li].Cards[ci]
	c.lists[li].Cards = slices.Delete(c.lists[li].Cards, ci, ci+1)
	id := newListID
	card.ListID = &id
	card.Order = newOrder
	c.insertLocked(dest, card)
	return true
}

func (c *Cache) insertLocked(li int, card models.CardView) {
	c.lists[li].Cards = append(c.lists[li].Cards, card)
	sortCards(c.lists[li].Cards)
}

func (c *Cache) removeCardLocked(id primitive.ObjectID) bool {
	li, ci := c.findCard(id)
	if li < 0 {
		return false
	}
	c.lists[li].Cards = slices.Delete(c.lists[li].Cards, ci, ci+1)
	return true
}

func (c *Cache) findList(id primitive.ObjectID) int {
	return slices.IndexFunc(c.lists, func(l models.ListView) bool { return l.ID == id })
}

func (c *Cache) findCard(id primitive.ObjectID) (int, int) {
	for li, l := range c.lists {
		if ci := slices.IndexFunc(l.Cards, func(card models.CardView) bool { return card.ID == id }); ci >= 0 {
			return li, ci
		}
	}
	return -1, -1
}

func sortLists(lists []models.ListView) {
	slices.SortStableFunc(lists, func(a, b models.ListView) int { return cmp.Compare(a.Order, b.Order) })
}

func sortCards(cards []models.CardView) {
	slices.SortStableFunc(cards, func(a, b models.CardView) int { return cmp.Compare(a.Order, b.Order) })
}
