package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"kediacrm/internal/models"
)

type userDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Password       string             `bson:"password"`
	Phone          string             `bson:"phone,omitempty"`
	Department     string             `bson:"department,omitempty"`
	Type           string             `bson:"type"`
	Status         string             `bson:"status"`
	DateAdded      time.Time          `bson:"dateAdded"`
	TelegramChatID int64              `bson:"telegramChatId,omitempty"`
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:             hexOrEmpty(d.ID),
		Name:           d.Name,
		Email:          d.Email,
		PasswordHash:   d.Password,
		Phone:          d.Phone,
		Department:     d.Department,
		Role:           models.Role(d.Type),
		Status:         d.Status,
		DateAdded:      d.DateAdded,
		TelegramChatID: d.TelegramChatID,
	}
}

// UserMongo stores users in the "users" collection; email has a unique index.
type UserMongo struct {
	store *MongoStore
	coll  *mongo.Collection
}

func (r *UserMongo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *UserMongo) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, sortByID)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]models.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *UserMongo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()

	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := doc.toModel()
	return &u, nil
}

func (r *UserMongo) Get(ctx context.Context, id string) (*models.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	u, err := r.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return u, nil
}

func (r *UserMongo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserMongo) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	doc := userDocument{
		ID:             primitive.NewObjectID(),
		Name:           user.Name,
		Email:          NormalizeEmail(user.Email),
		Password:       user.PasswordHash,
		Phone:          user.Phone,
		Department:     user.Department,
		Type:           string(user.Role),
		Status:         user.Status,
		DateAdded:      user.DateAdded,
		TelegramChatID: user.TelegramChatID,
	}

	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	u := doc.toModel()
	return &u, nil
}

func userSet(p models.UserPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = NormalizeEmail(*p.Email)
	}
	if p.PasswordHash != nil {
		set["password"] = *p.PasswordHash
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Department != nil {
		set["department"] = *p.Department
	}
	if p.Role != nil {
		set["type"] = string(*p.Role)
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.TelegramChatID != nil {
		set["telegramChatId"] = *p.TelegramChatID
	}
	return set
}

func (r *UserMongo) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ErrNotFound
	}
	set := userSet(patch)
	if len(set) == 0 {
		u, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrNotFound
		}
		return u, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()

	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, returnAfter).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrDuplicateEmail
	case err != nil:
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	u := doc.toModel()
	return &u, nil
}

func (r *UserMongo) Remove(ctx context.Context, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.store.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete user %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}
