package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	pkgmongo "github.com/dmitrymomot/tenantkit/pkg/mongo"
	tenantpkg "github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
)

const (
	tenantsCollection     = "tenants"
	membershipsCollection = "tenant_memberships"
)

// MongoStore persists tenants and memberships in MongoDB. Every call binds
// its context to the session the transaction manager holds in scope, so
// operations join the open transaction when one is active.
type MongoStore struct {
	db  *mongo.Database
	mgr *txn.Manager
}

// NewMongoStore creates a tenant store over the given database and manager.
func NewMongoStore(db *mongo.Database, mgr *txn.Manager) *MongoStore {
	return &MongoStore{db: db, mgr: mgr}
}

// EnsureIndexes creates the unique indexes the store relies on: slug per
// tenant and one membership per (tenant, email) pair.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(tenantsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "allowed_origins", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.db.Collection(membershipsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type tenantDoc struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Slug           string    `bson:"slug"`
	AllowedOrigins []string  `bson:"allowed_origins"`
	Active         bool      `bson:"active"`
	CreatedAt      time.Time `bson:"created_at"`
}

func toTenantDoc(t Tenant) tenantDoc {
	return tenantDoc{
		ID:             t.ID.String(),
		Name:           t.Name,
		Slug:           t.Slug,
		AllowedOrigins: t.AllowedOrigins,
		Active:         t.Active,
		CreatedAt:      t.CreatedAt,
	}
}

func (d tenantDoc) toTenant() (*Tenant, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &Tenant{
		ID:             id,
		Name:           d.Name,
		Slug:           d.Slug,
		AllowedOrigins: d.AllowedOrigins,
		Active:         d.Active,
		CreatedAt:      d.CreatedAt,
	}, nil
}

type membershipDoc struct {
	ID        string    `bson:"_id"`
	TenantID  string    `bson:"tenant_id"`
	Email     string    `bson:"email"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d membershipDoc) toMembership() (*Membership, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	tid, err := uuid.Parse(d.TenantID)
	if err != nil {
		return nil, err
	}
	return &Membership{
		ID:        id,
		TenantID:  tid,
		Email:     d.Email,
		Role:      Role(d.Role),
		CreatedAt: d.CreatedAt,
	}, nil
}

func (s *MongoStore) tx(ctx context.Context) context.Context {
	return pkgmongo.ContextWithTx(ctx, s.mgr)
}

func (s *MongoStore) CreateTenant(ctx context.Context, t Tenant) error {
	_, err := s.db.Collection(tenantsCollection).InsertOne(s.tx(ctx), toTenantDoc(t))
	return err
}

func (s *MongoStore) UpdateTenant(ctx context.Context, t Tenant) error {
	res, err := s.db.Collection(tenantsCollection).UpdateOne(s.tx(ctx),
		bson.M{"_id": t.ID.String()},
		bson.M{"$set": bson.M{
			"name":            t.Name,
			"allowed_origins": t.AllowedOrigins,
			"active":          t.Active,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return tenantpkg.ErrTenantNotFound
	}
	return nil
}

// DeleteTenant removes the tenant and its memberships. Mongo has no cascading
// deletes, so both collections are touched inside the caller's transaction.
func (s *MongoStore) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	ctx = s.tx(ctx)
	res, err := s.db.Collection(tenantsCollection).DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return tenantpkg.ErrTenantNotFound
	}
	_, err = s.db.Collection(membershipsCollection).DeleteMany(ctx, bson.M{"tenant_id": id.String()})
	return err
}

func (s *MongoStore) findTenant(ctx context.Context, filter bson.M) (*Tenant, error) {
	var doc tenantDoc
	err := s.db.Collection(tenantsCollection).FindOne(s.tx(ctx), filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, tenantpkg.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toTenant()
}

func (s *MongoStore) GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.findTenant(ctx, bson.M{"_id": id.String()})
}

func (s *MongoStore) GetTenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.findTenant(ctx, bson.M{"slug": slug})
}

func (s *MongoStore) GetTenantByOrigin(ctx context.Context, origin string) (*Tenant, error) {
	// Matching a scalar against an array field is an exact-element match.
	return s.findTenant(ctx, bson.M{"allowed_origins": origin})
}

func (s *MongoStore) listTenants(ctx context.Context, filter bson.M) ([]Tenant, error) {
	cur, err := s.db.Collection(tenantsCollection).Find(s.tx(ctx), filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Tenant
	for cur.Next(ctx) {
		var doc tenantDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		t, err := doc.toTenant()
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, cur.Err()
}

func (s *MongoStore) ListTenants(ctx context.Context) ([]Tenant, error) {
	return s.listTenants(ctx, bson.M{})
}

func (s *MongoStore) ListTenantsByMember(ctx context.Context, email string) ([]Tenant, error) {
	cur, err := s.db.Collection(membershipsCollection).Find(s.tx(ctx), bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc membershipDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.TenantID)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.listTenants(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *MongoStore) CreateMembership(ctx context.Context, m Membership) error {
	_, err := s.db.Collection(membershipsCollection).InsertOne(s.tx(ctx), membershipDoc{
		ID:        m.ID.String(),
		TenantID:  m.TenantID.String(),
		Email:     m.Email,
		Role:      string(m.Role),
		CreatedAt: m.CreatedAt,
	})
	return err
}

func (s *MongoStore) DeleteMembership(ctx context.Context, tenantID uuid.UUID, email string) error {
	res, err := s.db.Collection(membershipsCollection).DeleteOne(s.tx(ctx),
		bson.M{"tenant_id": tenantID.String(), "email": email})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func (s *MongoStore) GetMembership(ctx context.Context, tenantID uuid.UUID, email string) (*Membership, error) {
	var doc membershipDoc
	err := s.db.Collection(membershipsCollection).FindOne(s.tx(ctx),
		bson.M{"tenant_id": tenantID.String(), "email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toMembership()
}

func (s *MongoStore) ListMemberships(ctx context.Context, tenantID uuid.UUID) ([]Membership, error) {
	cur, err := s.db.Collection(membershipsCollection).Find(s.tx(ctx),
		bson.M{"tenant_id": tenantID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Membership
	for cur.Next(ctx) {
		var doc membershipDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		m, err := doc.toMembership()
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, cur.Err()
}
