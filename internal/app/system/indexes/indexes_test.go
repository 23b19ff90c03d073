package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/kanbanhub/internal/app/system/indexes"
	"github.com/dalemusser/kanbanhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users":         {"uniq_users_email", "idx_users_nameci_id"},
		"boards":        {"idx_boards_owner_updated", "idx_boards_members_updated"},
		"lists":         {"idx_lists_board_order"},
		"cards":         {"idx_cards_list_order", "idx_cards_board_status_order", "idx_cards_board_order"},
		"comments":      {"idx_comments_card_created"},
		"notifications": {"idx_notifications_user_read_created", "idx_notifications_user_created", "idx_notifications_read_created"},
	}
	for coll, want := range expected {
		t.Run(coll, func(t *testing.T) {
			got := indexNames(t, ctx, db, coll)
			for _, name := range want {
				if !got[name] {
					t.Errorf("expected index %q on %s", name, coll)
				}
			}
		})
	}
}

func TestEnsureAll_UniqueEmailBlocksDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"email": "a@example.com"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := users.InsertOne(ctx, bson.M{"email": "a@example.com"}); err == nil {
		t.Error("expected duplicate email insert to fail")
	}
}
