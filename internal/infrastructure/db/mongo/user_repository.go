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
	_ ports.UserRepository = (*UserRepository)(nil)
	_ ports.SessionStore   = (*UserRepository)(nil)
)

// UserRepository implements ports.UserRepository and ports.SessionStore on
// the users collection. Sessions live inline in the tokens array.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type tokenDocument struct {
	SessionID string `bson:"sid"`
	Token     string `bson:"token"`
	IssuedAt  int64  `bson:"issued_at"`
}

type userDocument struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Name          string               `bson:"name"`
	Surname       string               `bson:"surname"`
	Lastname      string               `bson:"lastname"`
	Email         string               `bson:"email"`
	Password      string               `bson:"password"`
	Roles         []primitive.ObjectID `bson:"roles"`
	Groups        []primitive.ObjectID `bson:"groups"`
	Tokens        []tokenDocument      `bson:"tokens"`
	EmailVerified bool                 `bson:"email_verified"`
	LoggedIn      bool                 `bson:"logged_in"`
	LastLogin     int64                `bson:"last_login"`
	LastLogout    int64                `bson:"last_logout"`
	CreatedAt     int64                `bson:"created_at"`
	UpdatedAt     int64                `bson:"updated_at"`
}

func (d *userDocument) toDomain() *domain.User {
	sessions := make([]domain.Session, 0, len(d.Tokens))
	for _, t := range d.Tokens {
		sessions = append(sessions, domain.Session{
			ID:       t.SessionID,
			Token:    t.Token,
			IssuedAt: domain.FromMillis(t.IssuedAt),
		})
	}
	return &domain.User{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Surname:        d.Surname,
		Lastname:       d.Lastname,
		Email:          d.Email,
		PasswordDigest: d.Password,
		Roles:          hexIDs(d.Roles),
		Groups:         hexIDs(d.Groups),
		Sessions:       sessions,
		EmailVerified:  d.EmailVerified,
		LoggedIn:       d.LoggedIn,
		LastLogin:      domain.FromMillis(d.LastLogin),
		LastLogout:     domain.FromMillis(d.LastLogout),
		CreatedAt:      domain.FromMillis(d.CreatedAt),
		UpdatedAt:      domain.FromMillis(d.UpdatedAt),
	}
}

func tokenDoc(s domain.Session) tokenDocument {
	return tokenDocument{SessionID: s.ID, Token: s.Token, IssuedAt: domain.Millis(s.IssuedAt)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	roles, err := objectIDs(user.Roles)
	if err != nil {
		return nil, err
	}
	groups, err := objectIDs(user.Groups)
	if err != nil {
		return nil, err
	}
	tokens := make([]tokenDocument, 0, len(user.Sessions))
	for _, s := range user.Sessions {
		tokens = append(tokens, tokenDoc(s))
	}

	doc := userDocument{
		ID:            primitive.NewObjectID(),
		Name:          user.Name,
		Surname:       user.Surname,
		Lastname:      user.Lastname,
		Email:         domain.NormalizeEmail(user.Email),
		Password:      user.PasswordDigest,
		Roles:         roles,
		Groups:        groups,
		Tokens:        tokens,
		EmailVerified: user.EmailVerified,
		CreatedAt:     domain.Millis(user.CreatedAt),
		UpdatedAt:     domain.Millis(user.UpdatedAt),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Validation("email %s is already registered", doc.Email)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "find user")
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("%s not found", email)
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, upd domain.UserUpdate, at time.Time) (*domain.User, error) {
	set := bson.M{"updated_at": domain.Millis(at)}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Surname != nil {
		set["surname"] = *upd.Surname
	}
	if upd.Lastname != nil {
		set["lastname"] = *upd.Lastname
	}
	if upd.EmailVerified != nil {
		set["email_verified"] = *upd.EmailVerified
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *UserRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc userDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "delete user")
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) SetRoles(ctx context.Context, id string, roleIDs []string, at time.Time) (*domain.User, error) {
	roles, err := objectIDs(roleIDs)
	if err != nil {
		return nil, err
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"roles": roles, "updated_at": domain.Millis(at)}})
}

func (r *UserRepository) SetGroups(ctx context.Context, id string, groupIDs []string, at time.Time) (*domain.User, error) {
	groups, err := objectIDs(groupIDs)
	if err != nil {
		return nil, err
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"groups": groups, "updated_at": domain.Millis(at)}})
}

func (r *UserRepository) findOneAndUpdate(ctx context.Context, id string, update any) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, notFoundOr(err, id, "update user")
	}
	return doc.toDomain(), nil
}

// ── Sessions ──────────────────────────────────────────────────────────────────

func (r *UserRepository) AppendSession(ctx context.Context, userID string, s domain.Session, at time.Time) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	update := bson.M{
		"$push": bson.M{"tokens": tokenDoc(s)},
		"$set":  bson.M{"logged_in": true, "last_login": domain.Millis(at)},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("ID %s not found", userID)
	}
	return nil
}

func (r *UserRepository) HasSession(ctx context.Context, userID, token string) (bool, error) {
	oid, err := objectID(userID)
	if err != nil {
		return false, err
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid, "tokens.token": token}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count sessions: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) RotateSession(ctx context.Context, userID, oldToken string, next domain.Session) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": oid, "tokens.token": oldToken}
	update := bson.M{"$set": bson.M{
		"tokens.$.token":     next.Token,
		"tokens.$.issued_at": domain.Millis(next.IssuedAt),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("session not found")
	}
	return nil
}

// pullTokens builds a pipeline update that filters the tokens array with
// cond and recomputes logged_in in the same write.
func pullTokens(cond bson.M, at time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"tokens": bson.M{"$filter": bson.M{
				"input": bson.M{"$ifNull": bson.A{"$tokens", bson.A{}}},
				"cond":  cond,
			}},
			"last_logout": domain.Millis(at),
		}}},
		{{Key: "$set", Value: bson.M{
			"logged_in": bson.M{"$gt": bson.A{bson.M{"$size": "$tokens"}, 0}},
		}}},
	}
}

func (r *UserRepository) RemoveSessionByToken(ctx context.Context, token string, at time.Time) (string, error) {
	update := pullTokens(bson.M{"$ne": bson.A{"$$this.token", token}}, at)
	opts := options.FindOneAndUpdate().SetProjection(bson.M{"_id": 1})

	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"tokens.token": token}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("remove session by token: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *UserRepository) RemoveSession(ctx context.Context, userID, sessionID string, at time.Time) (string, error) {
	oid, err := objectID(userID)
	if err != nil {
		return "", err
	}
	update := pullTokens(bson.M{"$ne": bson.A{"$$this.sid", sessionID}}, at)
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"tokens": 1})

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return "", notFoundOr(err, userID, "remove session")
	}
	for _, t := range doc.Tokens {
		if t.SessionID == sessionID {
			return t.Token, nil
		}
	}
	return "", nil
}

func (r *UserRepository) ClearSessions(ctx context.Context, userID string, at time.Time) ([]string, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"tokens":      bson.A{},
		"logged_in":   false,
		"last_logout": domain.Millis(at),
	}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"tokens": 1})

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, notFoundOr(err, userID, "clear sessions")
	}
	tokens := make([]string, 0, len(doc.Tokens))
	for _, t := range doc.Tokens {
		tokens = append(tokens, t.Token)
	}
	return tokens, nil
}
