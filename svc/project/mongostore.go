package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	pkgmongo "github.com/dmitrymomot/tenantkit/pkg/mongo"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

const projectsCollection = "projects"

// MongoStore persists projects in MongoDB with the same scoping contract as
// the Postgres store: the tenant filter comes from the request context on
// every call.
type MongoStore struct {
	db  *mongo.Database
	mgr *txn.Manager
}

// NewMongoStore creates a project store over the given database and manager.
func NewMongoStore(db *mongo.Database, mgr *txn.Manager) *MongoStore {
	return &MongoStore{db: db, mgr: mgr}
}

// EnsureIndexes creates the tenant-scoped listing index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(projectsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

type projectDoc struct {
	ID          string    `bson:"_id"`
	TenantID    string    `bson:"tenant_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d projectDoc) toProject() (*Project, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	tid, err := uuid.Parse(d.TenantID)
	if err != nil {
		return nil, err
	}
	return &Project{
		ID:          id,
		TenantID:    tid,
		Name:        d.Name,
		Description: d.Description,
		Status:      Status(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func (s *MongoStore) col() *mongo.Collection {
	return s.db.Collection(projectsCollection)
}

func (s *MongoStore) tx(ctx context.Context) context.Context {
	return pkgmongo.ContextWithTx(ctx, s.mgr)
}

func (s *MongoStore) CreateProject(ctx context.Context, p Project) (*Project, error) {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return nil, err
	}
	p.TenantID = tid

	_, err = s.col().InsertOne(s.tx(ctx), projectDoc{
		ID:          p.ID.String(),
		TenantID:    p.TenantID.String(),
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) UpdateProject(ctx context.Context, p Project) (*Project, error) {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return nil, err
	}
	p.TenantID = tid

	res, err := s.col().UpdateOne(s.tx(ctx),
		bson.M{"_id": p.ID.String(), "tenant_id": tid.String()},
		bson.M{"$set": bson.M{
			"name":        p.Name,
			"description": p.Description,
			"status":      string(p.Status),
			"updated_at":  p.UpdatedAt,
		}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrProjectNotFound
	}
	return &p, nil
}

func (s *MongoStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return err
	}

	res, err := s.col().DeleteOne(s.tx(ctx),
		bson.M{"_id": id.String(), "tenant_id": tid.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *MongoStore) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return nil, err
	}

	var doc projectDoc
	err = s.col().FindOne(s.tx(ctx),
		bson.M{"_id": id.String(), "tenant_id": tid.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toProject()
}

func (s *MongoStore) ListProjects(ctx context.Context) ([]Project, error) {
	tid, err := tenant.RequiredID(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := s.col().Find(s.tx(ctx), bson.M{"tenant_id": tid.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Project
	for cur.Next(ctx) {
		var doc projectDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		p, err := doc.toProject()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, cur.Err()
}
