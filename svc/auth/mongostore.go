package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	pkgmongo "github.com/dmitrymomot/tenantkit/pkg/mongo"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

const usersCollection = "users"

// MongoStore persists user accounts in MongoDB.
type MongoStore struct {
	db  *mongo.Database
	mgr *txn.Manager
}

// NewMongoStore creates a user store over the given database and manager.
func NewMongoStore(db *mongo.Database, mgr *txn.Manager) *MongoStore {
	return &MongoStore{db: db, mgr: mgr}
}

// EnsureIndexes creates the unique email index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash []byte    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (s *MongoStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.Collection(usersCollection).InsertOne(pkgmongo.ContextWithTx(ctx, s.mgr), userDoc{
		ID:           u.ID.String(),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	})
	return err
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var doc userDoc
	err := s.db.Collection(usersCollection).FindOne(pkgmongo.ContextWithTx(ctx, s.mgr),
		bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:           id,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
