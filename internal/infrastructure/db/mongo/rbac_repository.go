package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

var (
	_ ports.RoleRepository       = (*RoleRepository)(nil)
	_ ports.GroupRepository      = (*GroupRepository)(nil)
	_ ports.PermissionRepository = (*PermissionRepository)(nil)
)

var byCreation = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

// findByIDs decodes every document of coll whose _id is in ids. Malformed ids
// fail the whole lookup; unknown ones are simply absent from the result.
func findByIDs[T any](ctx context.Context, coll *mongo.Collection, ids []string) ([]T, error) {
	oids, err := objectIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(oids) == 0 {
		return nil, nil
	}
	cur, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find %s by ids: %w", coll.Name(), err)
	}
	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return docs, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection) ([]T, error) {
	cur, err := coll.Find(ctx, bson.M{}, byCreation)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", coll.Name(), err)
	}
	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return docs, nil
}

// ── Roles ─────────────────────────────────────────────────────────────────────

type roleDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Descrip     string               `bson:"descrip"`
	Permissions []primitive.ObjectID `bson:"permissions"`
	CreatedAt   int64                `bson:"created_at"`
	UpdatedAt   int64                `bson:"updated_at"`
}

func (d *roleDocument) toDomain() *domain.Role {
	return &domain.Role{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Descrip:     d.Descrip,
		Permissions: hexIDs(d.Permissions),
		CreatedAt:   domain.FromMillis(d.CreatedAt),
		UpdatedAt:   domain.FromMillis(d.UpdatedAt),
	}
}

// RoleRepository implements ports.RoleRepository.
type RoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{coll: db.Collection(collectionRoles)}
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	perms, err := objectIDs(role.Permissions)
	if err != nil {
		return nil, err
	}
	doc := roleDocument{
		ID:          primitive.NewObjectID(),
		Name:        role.Name,
		Descrip:     role.Descrip,
		Permissions: perms,
		CreatedAt:   domain.Millis(role.CreatedAt),
		UpdatedAt:   domain.Millis(role.UpdatedAt),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Validation("role %s already exists", role.Name)
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc roleDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "find role")
	}
	return doc.toDomain(), nil
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	var doc roleDocument
	if err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("Role %s not found", name)
		}
		return nil, fmt.Errorf("find role by name: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RoleRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Role, error) {
	docs, err := findByIDs[roleDocument](ctx, r.coll, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Role, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *RoleRepository) FindAll(ctx context.Context) ([]*domain.Role, error) {
	docs, err := findAll[roleDocument](ctx, r.coll)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Role, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *RoleRepository) Delete(ctx context.Context, id string) (*domain.Role, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc roleDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "delete role")
	}
	return doc.toDomain(), nil
}

func (r *RoleRepository) SetPermissions(ctx context.Context, id string, permissionIDs []string, at time.Time) (*domain.Role, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	perms, err := objectIDs(permissionIDs)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"permissions": perms, "updated_at": domain.Millis(at)}}
	var doc roleDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, returnAfter).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "set role permissions")
	}
	return doc.toDomain(), nil
}

// ── Groups ────────────────────────────────────────────────────────────────────

type groupDocument struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Name      string               `bson:"name"`
	Descrip   string               `bson:"descrip"`
	Roles     []primitive.ObjectID `bson:"roles"`
	CreatedAt int64                `bson:"created_at"`
	UpdatedAt int64                `bson:"updated_at"`
}

func (d *groupDocument) toDomain() *domain.Group {
	return &domain.Group{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Descrip:   d.Descrip,
		Roles:     hexIDs(d.Roles),
		CreatedAt: domain.FromMillis(d.CreatedAt),
		UpdatedAt: domain.FromMillis(d.UpdatedAt),
	}
}

// GroupRepository implements ports.GroupRepository.
type GroupRepository struct {
	coll *mongo.Collection
}

func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{coll: db.Collection(collectionGroups)}
}

func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	roles, err := objectIDs(group.Roles)
	if err != nil {
		return nil, err
	}
	doc := groupDocument{
		ID:        primitive.NewObjectID(),
		Name:      group.Name,
		Descrip:   group.Descrip,
		Roles:     roles,
		CreatedAt: domain.Millis(group.CreatedAt),
		UpdatedAt: domain.Millis(group.UpdatedAt),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Validation("group %s already exists", group.Name)
		}
		return nil, fmt.Errorf("insert group: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc groupDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "find group")
	}
	return doc.toDomain(), nil
}

func (r *GroupRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Group, error) {
	docs, err := findByIDs[groupDocument](ctx, r.coll, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Group, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *GroupRepository) FindAll(ctx context.Context) ([]*domain.Group, error) {
	docs, err := findAll[groupDocument](ctx, r.coll)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Group, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *GroupRepository) Delete(ctx context.Context, id string) (*domain.Group, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc groupDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "delete group")
	}
	return doc.toDomain(), nil
}

func (r *GroupRepository) SetRoles(ctx context.Context, id string, roleIDs []string, at time.Time) (*domain.Group, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	roles, err := objectIDs(roleIDs)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"roles": roles, "updated_at": domain.Millis(at)}}
	var doc groupDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, returnAfter).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "set group roles")
	}
	return doc.toDomain(), nil
}

// ── Permissions ───────────────────────────────────────────────────────────────

type permissionDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Descrip   string             `bson:"descrip"`
	Resource  string             `bson:"resource"`
	Method    string             `bson:"method"`
	CreatedAt int64              `bson:"created_at"`
	UpdatedAt int64              `bson:"updated_at"`
}

func (d *permissionDocument) toDomain() *domain.Permission {
	return &domain.Permission{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Descrip:   d.Descrip,
		Resource:  d.Resource,
		Method:    d.Method,
		CreatedAt: domain.FromMillis(d.CreatedAt),
		UpdatedAt: domain.FromMillis(d.UpdatedAt),
	}
}

// PermissionRepository implements ports.PermissionRepository.
type PermissionRepository struct {
	coll *mongo.Collection
}

func NewPermissionRepository(db *mongo.Database) *PermissionRepository {
	return &PermissionRepository{coll: db.Collection(collectionPermissions)}
}

func (r *PermissionRepository) Create(ctx context.Context, p *domain.Permission) (*domain.Permission, error) {
	doc := permissionDocument{
		ID:        primitive.NewObjectID(),
		Name:      p.Name,
		Descrip:   p.Descrip,
		Resource:  p.Resource,
		Method:    p.Method,
		CreatedAt: domain.Millis(p.CreatedAt),
		UpdatedAt: domain.Millis(p.UpdatedAt),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Validation("permission %s.%s already exists", p.Resource, p.Method)
		}
		return nil, fmt.Errorf("insert permission: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PermissionRepository) FindByID(ctx context.Context, id string) (*domain.Permission, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc permissionDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "find permission")
	}
	return doc.toDomain(), nil
}

func (r *PermissionRepository) FindByGrant(ctx context.Context, g domain.Grant) (*domain.Permission, error) {
	var doc permissionDocument
	err := r.coll.FindOne(ctx, bson.M{"resource": g.Resource, "method": g.Method}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("Permission %s not found", g)
		}
		return nil, fmt.Errorf("find permission by grant: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PermissionRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Permission, error) {
	docs, err := findByIDs[permissionDocument](ctx, r.coll, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Permission, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *PermissionRepository) FindAll(ctx context.Context) ([]*domain.Permission, error) {
	docs, err := findAll[permissionDocument](ctx, r.coll)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Permission, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *PermissionRepository) Delete(ctx context.Context, id string) (*domain.Permission, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc permissionDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "delete permission")
	}
	return doc.toDomain(), nil
}
