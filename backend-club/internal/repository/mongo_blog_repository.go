package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gronit/club-portal/backend-club/internal/domain"
)

const blogsCollection = "blogs"

type blogDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	Title         string             `bson:"title"`
	Content       string             `bson:"content"`
	Author        string             `bson:"author"`
	Description   string             `bson:"description"`
	ImageURL      string             `bson:"image_url"`
	ImagePublicID string             `bson:"image_public_id,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func (d *blogDocument) toDomain() *domain.Blog {
	return &domain.Blog{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Content:       d.Content,
		Author:        d.Author,
		Description:   d.Description,
		ImageURL:      d.ImageURL,
		ImagePublicID: d.ImagePublicID,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

// MongoBlogRepository implements BlogRepository using MongoDB
type MongoBlogRepository struct {
	coll *mongo.Collection
}

// NewMongoBlogRepository creates a new MongoBlogRepository
func NewMongoBlogRepository(db *mongo.Database) *MongoBlogRepository {
	return &MongoBlogRepository{coll: db.Collection(blogsCollection)}
}

// EnsureIndexes creates the listing index
func (r *MongoBlogRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	return err
}

// Create inserts a blog and assigns its ID
func (r *MongoBlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	doc := blogDocument{
		ID:            primitive.NewObjectID(),
		Title:         blog.Title,
		Content:       blog.Content,
		Author:        blog.Author,
		Description:   blog.Description,
		ImageURL:      blog.ImageURL,
		ImagePublicID: blog.ImagePublicID,
		CreatedAt:     blog.CreatedAt,
		UpdatedAt:     blog.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	blog.ID = doc.ID.Hex()
	return nil
}

// GetByID retrieves a blog by ID
func (r *MongoBlogRepository) GetByID(ctx context.Context, id string) (*domain.Blog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc blogDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// List retrieves blogs newest first
func (r *MongoBlogRepository) List(ctx context.Context, limit, offset int) ([]*domain.Blog, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	blogs := make([]*domain.Blog, 0)
	for cursor.Next(ctx) {
		var doc blogDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		blogs = append(blogs, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	return blogs, int(total), nil
}

// Update replaces the mutable fields of a blog
func (r *MongoBlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	oid, err := primitive.ObjectIDFromHex(blog.ID)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"title":           blog.Title,
		"content":         blog.Content,
		"description":     blog.Description,
		"image_url":       blog.ImageURL,
		"image_public_id": blog.ImagePublicID,
		"updated_at":      blog.UpdatedAt,
	}}
	result, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a blog
func (r *MongoBlogRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
