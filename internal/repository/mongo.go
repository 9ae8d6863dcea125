package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/auth-service/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

type userDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	Email     string        `bson:"email"`
	Name      string        `bson:"name"`
	Password  string        `bson:"password"`
	IsActive  bool          `bson:"isActive"`
	Roles     []string      `bson:"roles"`
	CreatedAt time.Time     `bson:"createdAt"`
}

func toDocument(u *models.User) userDocument {
	return userDocument{
		Email:     u.Email,
		Name:      u.Name,
		Password:  u.PasswordHash,
		IsActive:  u.IsActive,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt,
	}
}

func (d *userDocument) toUser() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.Password,
		IsActive:     d.IsActive,
		Roles:        d.Roles,
		CreatedAt:    d.CreatedAt,
	}
}

// MongoRepository stores users as documents in a MongoDB collection
// with a unique index on email
type MongoRepository struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewMongoRepository connects to MongoDB and ensures the unique email index exists
func NewMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	users := client.Database(database).Collection(usersCollection)
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create email index: %w", err)
	}

	return &MongoRepository{client: client, users: users}, nil
}

// Create inserts a new user document
func (r *MongoRepository) Create(ctx context.Context, user *models.User) error {
	doc := toDocument(user)
	doc.ID = bson.NewObjectID()
	doc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return insertError(err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = doc.CreatedAt
	return nil
}

// FindByEmail retrieves a user by email
func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

// FindByID retrieves a user by its ObjectID hex string
func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

// FindAll returns all users in natural order
func (r *MongoRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	cursor, err := r.users.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toUser())
	}
	return users, nil
}

// Ping checks the server connection
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects the client
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toUser(), nil
}

func insertError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return fmt.Errorf("failed to create user: %w", err)
}
