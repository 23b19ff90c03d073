// internal/app/notify/emitter.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dalemusser/kanbanhub/internal/app/system/mailer"
	"github.com/dalemusser/kanbanhub/internal/app/system/workers"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Submitter accepts background tasks without blocking.
type Submitter interface {
	Submit(t workers.Task) bool
}

// NotificationStore persists notifications.
type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
}

// UserLookup resolves the names and addresses used in messages.
type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	Profiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error)
}

// MailSender delivers email.
type MailSender interface {
	Send(ctx context.Context, e mailer.Email) error
}

// Options holds the values used to build links and email copy.
type Options struct {
	SiteName string
	AppURL   string
}

// Emitter records user-facing notifications for board activity. Every
// method returns immediately; the work runs on the background queue and
// failures are logged there.
type Emitter struct {
	queue Submitter
	store NotificationStore
	users UserLookup
	mail  MailSender
	opts  Options
	log   *zap.Logger
}

// New creates an Emitter. mail may be nil to skip email.
func New(queue Submitter, store NotificationStore, users UserLookup, mail MailSender, opts Options, logger *zap.Logger) *Emitter {
	return &Emitter{queue: queue, store: store, users: users, mail: mail, opts: opts, log: logger}
}

// MemberAdded tells memberID that actorID added them to board, in-app and
// by email.
func (e *Emitter) MemberAdded(actorID, memberID primitive.ObjectID, board models.Board) {
	if actorID == memberID {
		return
	}
	e.queue.Submit(workers.Task{Name: "notify.member_added", Run: func(ctx context.Context) error {
		actor, err := e.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if _, err := e.store.Create(ctx, models.Notification{
			UserID:      memberID,
			Message:     fmt.Sprintf("%s added you to board %q", actor.Name, board.Title),
			Type:        models.NotifyBoard,
			RelatedID:   &board.ID,
			RelatedType: "board",
		}); err != nil {
			return err
		}

		if e.mail == nil {
			return nil
		}
		member, err := e.users.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		msg := mailer.BuildMemberAddedEmail(mailer.MemberAddedEmailData{
			SiteName:    e.opts.SiteName,
			Name:        member.Name,
			InviterName: actor.Name,
			BoardTitle:  board.Title,
			BoardURL:    e.boardURL(board.ID),
		})
		msg.To, msg.ToName = member.Email, member.Name
		if err := e.mail.Send(ctx, msg); err != nil {
			e.log.Warn("member-added email failed",
				zap.String("board_id", board.ID.Hex()),
				zap.String("user_id", memberID.Hex()),
				zap.Error(err))
		}
		return nil
	}})
}

// CardAssigned notifies each user in assignees, other than the actor, that
// they were assigned to card.
func (e *Emitter) CardAssigned(actorID primitive.ObjectID, card models.Card, assignees []primitive.ObjectID) {
	targets := without(assignees, actorID)
	if len(targets) == 0 {
		return
	}
	e.queue.Submit(workers.Task{Name: "notify.card_assigned", Run: func(ctx context.Context) error {
		actor, err := e.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("%s assigned you to %q", actor.Name, card.Title)
		for _, uid := range targets {
			if _, err := e.store.Create(ctx, models.Notification{
				UserID:      uid,
				Message:     msg,
				Type:        models.NotifyCard,
				RelatedID:   &card.ID,
				RelatedType: "card",
			}); err != nil {
				return err
			}
		}
		return nil
	}})
}

// CommentMentions notifies every participant mentioned as @name in text.
// The author is never notified about their own comment.
func (e *Emitter) CommentMentions(authorID primitive.ObjectID, card models.Card, participants []primitive.ObjectID, text string) {
	if !strings.Contains(text, "@") {
		return
	}
	candidates := without(participants, authorID)
	if len(candidates) == 0 {
		return
	}
	e.queue.Submit(workers.Task{Name: "notify.comment_mention", Run: func(ctx context.Context) error {
		profiles, err := e.users.Profiles(ctx, append(candidates, authorID))
		if err != nil {
			return err
		}
		author := profiles[authorID]

		pool := make([]models.Profile, 0, len(candidates))
		for _, id := range candidates {
			if p, ok := profiles[id]; ok {
				pool = append(pool, p)
			}
		}

		msg := fmt.Sprintf("%s mentioned you in a comment on %q", author.Name, card.Title)
		for _, uid := range Mentioned(text, pool) {
			if _, err := e.store.Create(ctx, models.Notification{
				UserID:      uid,
				Message:     msg,
				Type:        models.NotifyComment,
				RelatedID:   &card.ID,
				RelatedType: "card",
			}); err != nil {
				return err
			}
		}
		return nil
	}})
}

// Mentioned returns the ids of profiles referenced in text as @Full Name or
// @local-part of their email, matched case-insensitively on a word boundary.
func Mentioned(text string, profiles []models.Profile) []primitive.ObjectID {
	lower := strings.ToLower(text)
	var out []primitive.ObjectID
	for _, p := range profiles {
		handles := []string{strings.ToLower(strings.TrimSpace(p.Name))}
		if at := strings.IndexByte(p.Email, '@'); at > 0 {
			handles = append(handles, strings.ToLower(p.Email[:at]))
		}
		for _, h := range handles {
			if h != "" && hasMention(lower, h) {
				out = append(out, p.ID)
				break
			}
		}
	}
	return out
}

func hasMention(text, handle string) bool {
	needle := "@" + handle
	for from := 0; ; {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			return false
		}
		end := from + i + len(needle)
		if end == len(text) {
			return true
		}
		r, _ := utf8.DecodeRuneInString(text[end:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return true
		}
		// "@bob." at the end of a sentence is still a mention.
		if r == '.' {
			next, _ := utf8.DecodeRuneInString(text[end+1:])
			if end+1 == len(text) || unicode.IsSpace(next) {
				return true
			}
		}
		from = end
	}
}

func (e *Emitter) boardURL(id primitive.ObjectID) string {
	return strings.TrimRight(e.opts.AppURL, "/") + "/boards/" + id.Hex()
}

func without(ids []primitive.ObjectID, drop primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if id == drop || id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
