//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"pasturewatch/degradation"
	"pasturewatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoURI string

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	ctr, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, "start mongo container:", err)
		os.Exit(1)
	}
	mongoURI, err = ctr.ConnectionString(ctx)
	cancel()
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		fmt.Fprintln(os.Stderr, "mongo connection string:", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = testcontainers.TerminateContainer(ctr)
	os.Exit(code)
}

// connectFresh opens a Mongo store on a database of its own.
func connectFresh(t *testing.T) (*Mongo, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := "pw_" + primitive.NewObjectID().Hex()
	m, err := Connect(ctx, mongoURI, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m, db
}

func testReport(owner primitive.ObjectID, created time.Time) *models.AnalysisReport {
	s := degradation.Aggregate(degradation.Histogram{1: 10, 3: 30}, 10)
	return &models.AnalysisReport{
		OwnerID:         owner,
		CreatedAt:       created,
		AOI:             map[string]any{"type": "Polygon"},
		AreaHectares:    0.4,
		Summary:         s.Entries,
		TotalPixels:     s.TotalPixels,
		Narrative:       "Mostly stressed pasture.",
		NarrativeStatus: models.NarrativeGenerated,
		Layers:          map[string]*string{"slope": nil},
		HTML:            "<html>report</html>",
	}
}

func TestMongo_Ping(t *testing.T) {
	m, _ := connectFresh(t)
	require.NoError(t, m.Ping(context.Background()))
}

func TestMongo_Users(t *testing.T) {
	m, _ := connectFresh(t)
	ctx := context.Background()

	u := &models.User{Username: "rancher", Email: "owner@example.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, m.CreateUser(ctx, u))
	assert.False(t, u.ID.IsZero())

	dup := &models.User{Username: "other", Email: "owner@example.com", PasswordHash: "hash"}
	assert.ErrorIs(t, m.CreateUser(ctx, dup), ErrDuplicate)

	byEmail, err := m.UserByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := m.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "rancher", byID.Username)

	_, err = m.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.UserByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongo_ReportFieldNames(t *testing.T) {
	m, _ := connectFresh(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	r := testReport(owner, time.Now().UTC())
	require.NoError(t, m.InsertReport(ctx, r))
	require.False(t, r.ID.IsZero())

	var raw bson.M
	require.NoError(t, m.reports.FindOne(ctx, bson.M{"_id": r.ID}).Decode(&raw))
	assert.Equal(t, owner, raw["ownerId"])
	assert.Contains(t, raw, "createdAt")
	assert.Equal(t, "<html>report</html>", raw["html"])

	got, err := m.ReportByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.OwnerID)
	assert.Equal(t, "<html>report</html>", got.HTML)
	require.Len(t, got.Summary, 2)
	assert.Equal(t, degradation.Severe, got.Summary[0].ClassID)
	assert.Contains(t, got.Layers, "slope")
	assert.Nil(t, got.Layers["slope"])

	_, err = m.ReportByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongo_ReportsByOwner(t *testing.T) {
	m, _ := connectFresh(t)
	ctx := context.Background()
	owner, other := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		r := testReport(owner, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, m.InsertReport(ctx, r))
		ids = append(ids, r.ID)
	}
	require.NoError(t, m.InsertReport(ctx, testReport(other, base.Add(10*time.Hour))))

	all, err := m.ReportsByOwner(ctx, owner, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []primitive.ObjectID{ids[2], ids[1], ids[0]}, []primitive.ObjectID{all[0].ID, all[1].ID, all[2].ID})
	for _, r := range all {
		assert.Empty(t, r.HTML)
		assert.Equal(t, owner, r.OwnerID)
	}

	page, err := m.ReportsByOwner(ctx, owner, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)

	none, err := m.ReportsByOwner(ctx, primitive.NewObjectID(), 0, 100)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMongo_DeleteReportIsOwnerScoped(t *testing.T) {
	m, _ := connectFresh(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	r := testReport(owner, time.Now().UTC())
	require.NoError(t, m.InsertReport(ctx, r))

	assert.ErrorIs(t, m.DeleteReport(ctx, r.ID, primitive.NewObjectID()), ErrNotFound)
	_, err := m.ReportByID(ctx, r.ID)
	require.NoError(t, err)

	require.NoError(t, m.DeleteReport(ctx, r.ID, owner))
	_, err = m.ReportByID(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteReport(ctx, r.ID, owner), ErrNotFound)
}

func TestConnect_IndexFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := "pw_" + primitive.NewObjectID().Hex()
	users := client.Database(db).Collection("users")
	_, err = users.InsertMany(ctx, []any{
		bson.M{"email": "same@example.com"},
		bson.M{"email": "same@example.com"},
	})
	require.NoError(t, err)

	_, err = Connect(ctx, mongoURI, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users index")
}
