package kanban

import (
	"context"
	"sort"

	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BoardDetail is a board with its lists and their cards.
type BoardDetail struct {
	Board models.BoardView  `json:"board"`
	Lists []models.ListView `json:"lists"`
}

func (e *Engine) boardViews(ctx context.Context, boards []models.Board) ([]models.BoardView, error) {
	var ids []primitive.ObjectID
	for _, b := range boards {
		ids = append(ids, participants(b)...)
	}
	profiles, err := e.users.Profiles(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]models.BoardView, 0, len(boards))
	for _, b := range boards {
		out = append(out, toBoardView(b, profiles))
	}
	return out, nil
}

func (e *Engine) boardView(ctx context.Context, b models.Board) (models.BoardView, error) {
	views, err := e.boardViews(ctx, []models.Board{b})
	if err != nil {
		return models.BoardView{}, err
	}
	return views[0], nil
}

func toBoardView(b models.Board, profiles map[primitive.ObjectID]models.Profile) models.BoardView {
	owner, ok := profiles[b.OwnerID]
	if !ok {
		owner = models.Profile{ID: b.OwnerID}
	}
	members := make([]models.Profile, 0, len(b.Members))
	for _, id := range b.Members {
		if p, ok := profiles[id]; ok {
			members = append(members, p)
		}
	}
	lists := b.Lists
	if lists == nil {
		lists = []primitive.ObjectID{}
	}
	labels := b.Labels
	if labels == nil {
		labels = []models.Label{}
	}
	return models.BoardView{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Owner:       owner,
		Members:     members,
		Lists:       lists,
		Labels:      labels,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// cardViews expands assignees for a batch of cards with one profile lookup.
func (e *Engine) cardViews(ctx context.Context, cards []models.Card) ([]models.CardView, error) {
	var ids []primitive.ObjectID
	for _, c := range cards {
		ids = append(ids, c.Assignees...)
	}
	profiles, err := e.users.Profiles(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]models.CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardView(c, profiles))
	}
	return out, nil
}

func (e *Engine) cardView(ctx context.Context, c models.Card) (models.CardView, error) {
	views, err := e.cardViews(ctx, []models.Card{c})
	if err != nil {
		return models.CardView{}, err
	}
	return views[0], nil
}

func toCardView(c models.Card, profiles map[primitive.ObjectID]models.Profile) models.CardView {
	assignees := make([]models.Profile, 0, len(c.Assignees))
	for _, id := range c.Assignees {
		if p, ok := profiles[id]; ok {
			assignees = append(assignees, p)
		}
	}
	labels := c.Labels
	if labels == nil {
		labels = []string{}
	}
	return models.CardView{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		ListID:      c.ListID,
		BoardID:     c.BoardID,
		Order:       c.Order,
		Status:      c.Status,
		Priority:    c.Priority,
		Assignees:   assignees,
		Labels:      labels,
		DueDate:     c.DueDate,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (e *Engine) commentViews(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.AuthorID)
	}
	profiles, err := e.users.Profiles(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]models.CommentView, 0, len(comments))
	for _, cm := range comments {
		author, ok := profiles[cm.AuthorID]
		if !ok {
			author = models.Profile{ID: cm.AuthorID}
		}
		out = append(out, models.CommentView{
			ID:        cm.ID,
			Text:      cm.Text,
			CardID:    cm.CardID,
			Author:    author,
			CreatedAt: cm.CreatedAt,
			UpdatedAt: cm.UpdatedAt,
		})
	}
	return out, nil
}

// listViews groups cards under their lists. Lists keep the order they were
// given; cards inside each list are sorted by order. Cards whose list is
// not among lists are left out.
func listViews(lists []models.List, cards []models.CardView) []models.ListView {
	byList := make(map[primitive.ObjectID][]models.CardView, len(lists))
	for _, c := range cards {
		if c.ListID != nil {
			byList[*c.ListID] = append(byList[*c.ListID], c)
		}
	}
	out := make([]models.ListView, 0, len(lists))
	for _, l := range lists {
		cs := byList[l.ID]
		if cs == nil {
			cs = []models.CardView{}
		}
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].Order < cs[j].Order })
		out = append(out, models.ListView{
			ID:        l.ID,
			Title:     l.Title,
			BoardID:   l.BoardID,
			Order:     l.Order,
			Cards:     cs,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		})
	}
	return out
}
