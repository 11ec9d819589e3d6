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

const membersCollection = "team_members"

type socialLinksDocument struct {
	Instagram string `bson:"instagram,omitempty"`
	LinkedIn  string `bson:"linkedin,omitempty"`
	GitHub    string `bson:"github,omitempty"`
}

type memberDocument struct {
	ID            primitive.ObjectID  `bson:"_id"`
	Name          string              `bson:"name"`
	Domain        string              `bson:"domain"`
	ImageURL      string              `bson:"image_url"`
	ImagePublicID string              `bson:"image_public_id,omitempty"`
	SocialLinks   socialLinksDocument `bson:"social_links"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

func (d *memberDocument) toDomain() *domain.Member {
	return &domain.Member{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Domain:        d.Domain,
		ImageURL:      d.ImageURL,
		ImagePublicID: d.ImagePublicID,
		SocialLinks: domain.SocialLinks{
			Instagram: d.SocialLinks.Instagram,
			LinkedIn:  d.SocialLinks.LinkedIn,
			GitHub:    d.SocialLinks.GitHub,
		},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func linksDocument(l domain.SocialLinks) socialLinksDocument {
	return socialLinksDocument{Instagram: l.Instagram, LinkedIn: l.LinkedIn, GitHub: l.GitHub}
}

// MongoMemberRepository implements MemberRepository using MongoDB
type MongoMemberRepository struct {
	coll *mongo.Collection
}

// NewMongoMemberRepository creates a new MongoMemberRepository
func NewMongoMemberRepository(db *mongo.Database) *MongoMemberRepository {
	return &MongoMemberRepository{coll: db.Collection(membersCollection)}
}

// EnsureIndexes creates the listing index
func (r *MongoMemberRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
	})
	return err
}

// Create inserts a member and assigns its ID
func (r *MongoMemberRepository) Create(ctx context.Context, member *domain.Member) error {
	doc := memberDocument{
		ID:            primitive.NewObjectID(),
		Name:          member.Name,
		Domain:        member.Domain,
		ImageURL:      member.ImageURL,
		ImagePublicID: member.ImagePublicID,
		SocialLinks:   linksDocument(member.SocialLinks),
		CreatedAt:     member.CreatedAt,
		UpdatedAt:     member.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	member.ID = doc.ID.Hex()
	return nil
}

// GetByID retrieves a member by ID
func (r *MongoMemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc memberDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// List retrieves members ordered by name
func (r *MongoMemberRepository) List(ctx context.Context, limit, offset int) ([]*domain.Member, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	members := make([]*domain.Member, 0)
	for cursor.Next(ctx) {
		var doc memberDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		members = append(members, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	return members, int(total), nil
}

// Update replaces the mutable fields of a member
func (r *MongoMemberRepository) Update(ctx context.Context, member *domain.Member) error {
	oid, err := primitive.ObjectIDFromHex(member.ID)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"name":            member.Name,
		"domain":          member.Domain,
		"image_url":       member.ImageURL,
		"image_public_id": member.ImagePublicID,
		"social_links":    linksDocument(member.SocialLinks),
		"updated_at":      member.UpdatedAt,
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

// Delete removes a member
func (r *MongoMemberRepository) Delete(ctx context.Context, id string) error {
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
