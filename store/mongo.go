// Package store persists users and analysis reports in MongoDB.
package store

import (
	"context"
	"errors"
	"fmt"

	"pasturewatch/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Mongo holds the client and the collections used by the API.
type Mongo struct {
	client  *mongo.Client
	users   *mongo.Collection
	reports *mongo.Collection
}

// Connect opens the database and makes sure the indexes exist.
func Connect(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	db := client.Database(database)

	m := &Mongo{
		client:  client,
		users:   db.Collection("users"),
		reports: db.Collection("reports"),
	}
	if _, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("users index: %w", err)
	}
	if _, err := m.reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("reports index: %w", err)
	}
	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

// Ping checks the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error { return m.client.Ping(ctx, nil) }

// CreateUser inserts u and sets its id. A taken email yields ErrDuplicate.
func (m *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	res, err := m.users.InsertOne(ctx, u)
	if err != nil {
		return mapErr(err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := m.users.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (m *Mongo) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := m.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// InsertReport stores r and sets its id.
func (m *Mongo) InsertReport(ctx context.Context, r *models.AnalysisReport) error {
	res, err := m.reports.InsertOne(ctx, r)
	if err != nil {
		return mapErr(err)
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ReportByID loads a report regardless of owner; callers check ownership.
func (m *Mongo) ReportByID(ctx context.Context, id primitive.ObjectID) (*models.AnalysisReport, error) {
	var r models.AnalysisReport
	if err := m.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

// ReportsByOwner lists an owner's reports, newest first, without the HTML body.
func (m *Mongo) ReportsByOwner(ctx context.Context, owner primitive.ObjectID, skip, limit int64) ([]models.AnalysisReport, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit).
		SetProjection(bson.M{"html": 0})
	cur, err := m.reports.Find(ctx, bson.M{"ownerId": owner}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)

	out := []models.AnalysisReport{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return out, nil
}

// DeleteReport removes a report owned by owner.
func (m *Mongo) DeleteReport(ctx context.Context, id, owner primitive.ObjectID) error {
	res, err := m.reports.DeleteOne(ctx, bson.M{"_id": id, "ownerId": owner})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
