package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
)

const accountsCollection = "users"

// AccountRepository implements ports.AccountRepository on a single MongoDB
// collection. Balance and transcript mutations are expressed as guarded
// `$inc` and `$push` updates so they stay atomic under concurrent requests
// for the same account; documents are never rewritten wholesale after
// creation.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountsCollection)}
}

// Create inserts a new account document. The unique index on username turns
// a duplicate insert into domain.ErrUserExists.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return storeErr("insert account", err)
	}
	return nil
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var account domain.Account
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("find account", err)
	}
	return &account, nil
}

// SetPreferences updates only the learning_preferences field.
func (r *AccountRepository) SetPreferences(ctx context.Context, username string, prefs domain.Preferences) error {
	return r.setField(ctx, username, "learning_preferences", prefs)
}

// SetSubjects updates only the subjects field.
func (r *AccountRepository) SetSubjects(ctx context.Context, username string, subjects []string) error {
	return r.setField(ctx, username, "subjects", subjects)
}

func (r *AccountRepository) setField(ctx context.Context, username, field string, value any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return storeErr("set "+field, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// DebitTokens decrements the balance in a single guarded update: the filter
// requires tokens >= amount, so the balance can never go negative even when
// two requests for the same account race.
func (r *AccountRepository) DebitTokens(ctx context.Context, username string, amount int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"username": username, "tokens": bson.M{"$gte": amount}}
	update := bson.M{"$inc": bson.M{"tokens": -amount}}

	var account domain.Account
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&account)
	if err == nil {
		return account.Tokens, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, storeErr("debit tokens", err)
	}

	// The guard rejected the update: either the account does not exist or
	// the balance is too low. Distinguish the two for the caller.
	if _, findErr := r.FindByUsername(ctx, username); findErr != nil {
		return 0, findErr
	}
	return 0, domain.ErrInsufficientTokens
}

// CreditTokens increments the balance unconditionally. Used only as the
// compensating half of a debit whose paired remote call failed.
func (r *AccountRepository) CreditTokens(ctx context.Context, username string, amount int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var account domain.Account
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"username": username},
		bson.M{"$inc": bson.M{"tokens": amount}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrUserNotFound
		}
		return 0, storeErr("credit tokens", err)
	}
	return account.Tokens, nil
}

// AppendTurn pushes the turn onto the stored transcript. `$push` appends at
// the tail, preserving conversation order.
func (r *AccountRepository) AppendTurn(ctx context.Context, username string, turn domain.Turn) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$push": bson.M{"chat_history": turn}},
	)
	if err != nil {
		return storeErr("append turn", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// LoadTranscript fetches only the chat_history field.
func (r *AccountRepository) LoadTranscript(ctx context.Context, username string) ([]domain.Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc struct {
		Transcript []domain.Turn `bson:"chat_history"`
	}
	err := r.coll.FindOne(ctx,
		bson.M{"username": username},
		options.FindOne().SetProjection(bson.M{"chat_history": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("load transcript", err)
	}
	return doc.Transcript, nil
}

// EnsureIndexes creates the unique username index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}
