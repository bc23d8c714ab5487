package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crushboard/internal/feed"
	"crushboard/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoBackend stores confessions as schemaless documents. Documents are decoded loosely and
// run through feed.NormalizeDocument, so a malformed likesCount or likedBy never breaks a read.
type MongoBackend struct {
	client      *mongo.Client
	confessions *mongo.Collection
	replies     *mongo.Collection
}

// OpenMongo connects and pings the server.
func OpenMongo(ctx context.Context, uri, database string) (*MongoBackend, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	db := client.Database(database)
	return &MongoBackend{
		client:      client,
		confessions: db.Collection("confessions"),
		replies:     db.Collection("replies"),
	}, nil
}

// EnsureIndexes creates the indexes the reads rely on.
func (m *MongoBackend) EnsureIndexes(ctx context.Context) error {
	_, err := m.replies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parentConfessionId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (m *MongoBackend) ListConfessions(ctx context.Context) ([]models.Confession, error) {
	cur, err := m.confessions.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Confession, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeConfession(doc))
	}
	return out, nil
}

func (m *MongoBackend) GetConfession(ctx context.Context, id string) (*models.Confession, error) {
	var doc bson.M
	err := m.confessions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c := decodeConfession(doc)
	return &c, nil
}

func (m *MongoBackend) CreateConfession(ctx context.Context, c *models.Confession) error {
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = &now
	if c.LikedBy == nil {
		c.LikedBy = models.LikedBy{}
	}
	_, err := m.confessions.InsertOne(ctx, c)
	return err
}

// PatchLike issues one UpdateOne carrying both $inc on the counter and $set on the flag.
func (m *MongoBackend) PatchLike(ctx context.Context, id string, p LikePatch) error {
	res, err := m.confessions.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"likesCount": p.Delta},
		"$set": bson.M{"likedBy." + p.UserID: p.Liked},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoBackend) ListReplies(ctx context.Context, confessionID string) ([]models.Reply, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.replies.Find(ctx, bson.M{"parentConfessionId": confessionID}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Reply
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Reply{}
	}
	return out, nil
}

func (m *MongoBackend) CreateReply(ctx context.Context, r *models.Reply) error {
	n, err := m.confessions.CountDocuments(ctx, bson.M{"_id": r.ParentConfessionID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = &now
	_, err = m.replies.InsertOne(ctx, r)
	return err
}

func (m *MongoBackend) Import(ctx context.Context, items []models.Confession) (int, error) {
	inserted := 0
	for i := range items {
		if items[i].ID == "" {
			continue
		}
		res, err := m.confessions.UpdateOne(ctx,
			bson.M{"_id": items[i].ID},
			bson.M{"$setOnInsert": importFields(items[i])},
			options.UpdateOne().SetUpsert(true),
		)
		if err != nil {
			return inserted, err
		}
		if res.UpsertedCount > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (m *MongoBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// importFields is the document body of c without _id, which the upsert filter supplies.
func importFields(c models.Confession) bson.M {
	likedBy := c.LikedBy
	if likedBy == nil {
		likedBy = models.LikedBy{}
	}
	return bson.M{
		"message":     c.Message,
		"crushName":   c.CrushName,
		"socialMedia": c.SocialMedia,
		"authorId":    c.AuthorID,
		"createdAt":   c.CreatedAt,
		"likesCount":  c.LikesCount,
		"likedBy":     likedBy,
	}
}

func decodeConfession(doc bson.M) models.Confession {
	plain, _ := plainValue(doc).(map[string]interface{})
	id, _ := plain["_id"].(string)
	return feed.NormalizeDocument(id, plain)
}

func plainValue(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = plainValue(val)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = plainValue(val)
		}
		return out
	case bson.DateTime:
		return t.Time().UTC()
	case bson.ObjectID:
		return t.Hex()
	default:
		return v
	}
}
