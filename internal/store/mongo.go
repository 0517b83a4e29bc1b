package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/virallens/support-chat/internal/model"
	"github.com/virallens/support-chat/pkg/metrics"
)

const collectionName = "conversations"

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URL         string
	Database    string
	MaxPoolSize int
}

// MongoStore implements ConversationStore on a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect establishes a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.URL)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxPoolSize))
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the database connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) conversations() *mongo.Collection {
	return s.db.Collection(collectionName)
}

// EnsureIndexes creates the collection indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "conversation_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}
	if _, err := s.conversations().Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordStoreOp(op, status, time.Since(start).Seconds())
}

// Upsert creates or merges a conversation document keyed by conversation_id.
// The update is a single atomic document write; concurrent upserts to the
// same id are last-writer-wins at the field level.
func (s *MongoStore) Upsert(ctx context.Context, conversationID string, fields UpsertFields) (conv *model.Conversation, err error) {
	start := time.Now()
	defer func() { observe("upsert", start, err) }()

	now := time.Now()
	set := bson.M{
		"preview":      fields.Preview,
		"messages":     fields.Messages,
		"messageCount": fields.MessageCount,
		"duration":     fields.Duration,
		"updatedAt":    now,
	}
	setOnInsert := bson.M{
		"conversation_id": conversationID,
		"createdAt":       now,
	}

	if fields.MetaOnInsertOnly {
		setOnInsert["user_id"] = fields.UserID
		setOnInsert["title"] = fields.Title
		setOnInsert["type"] = fields.Type
	} else {
		set["user_id"] = fields.UserID
		set["title"] = fields.Title
		set["type"] = fields.Type
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc model.Conversation
	err = s.conversations().FindOneAndUpdate(ctx,
		bson.M{"conversation_id": conversationID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		opts,
	).Decode(&doc)
	if err != nil {
		return nil, &StoreError{Op: "upsert", Err: err}
	}

	metrics.ConversationsUpserted.Inc()
	return &doc, nil
}

// FindByID returns the full conversation document.
func (s *MongoStore) FindByID(ctx context.Context, conversationID string) (conv *model.Conversation, err error) {
	start := time.Now()
	defer func() { observe("findById", start, err) }()

	var doc model.Conversation
	err = s.conversations().FindOne(ctx, bson.M{"conversation_id": conversationID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "conversation", ID: conversationID}
		}
		return nil, &StoreError{Op: "findById", Err: err}
	}
	return &doc, nil
}

// FindMany returns a page of conversation summaries and the total count
// matching the filter. Transcripts are projected out.
func (s *MongoStore) FindMany(ctx context.Context, q Query) (convs []model.Conversation, total int64, err error) {
	start := time.Now()
	defer func() { observe("findMany", start, err) }()

	filter := buildFilter(q, time.Now())

	total, err = s.conversations().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, &StoreError{Op: "count", Err: err}
	}

	opts := options.Find().
		SetSort(buildSort(q.SortBy)).
		SetSkip(q.Skip).
		SetLimit(q.Limit).
		SetProjection(bson.M{"messages": 0})

	cur, err := s.conversations().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, &StoreError{Op: "findMany", Err: err}
	}
	var docs []model.Conversation
	if err = cur.All(ctx, &docs); err != nil {
		return nil, 0, &StoreError{Op: "findMany", Err: err}
	}
	if docs == nil {
		docs = []model.Conversation{}
	}
	return docs, total, nil
}

// FindFull returns all of a user's conversations with transcripts, oldest
// first.
func (s *MongoStore) FindFull(ctx context.Context, userID string) (convs []model.Conversation, err error) {
	start := time.Now()
	defer func() { observe("findFull", start, err) }()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := s.conversations().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, &StoreError{Op: "findFull", Err: err}
	}
	var docs []model.Conversation
	if err = cur.All(ctx, &docs); err != nil {
		return nil, &StoreError{Op: "findFull", Err: err}
	}
	if docs == nil {
		docs = []model.Conversation{}
	}
	return docs, nil
}

// UpdateTitle sets the title and updatedAt of an existing conversation.
func (s *MongoStore) UpdateTitle(ctx context.Context, conversationID, title string) (conv *model.Conversation, err error) {
	start := time.Now()
	defer func() { observe("updateTitle", start, err) }()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc model.Conversation
	err = s.conversations().FindOneAndUpdate(ctx,
		bson.M{"conversation_id": conversationID},
		bson.M{"$set": bson.M{"title": title, "updatedAt": time.Now()}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "conversation", ID: conversationID}
		}
		return nil, &StoreError{Op: "updateTitle", Err: err}
	}
	return &doc, nil
}

// ReplaceMessages overwrites the transcript of an existing conversation.
func (s *MongoStore) ReplaceMessages(ctx context.Context, conversationID string, messages []model.Message, updatedAt time.Time) (err error) {
	start := time.Now()
	defer func() { observe("replaceMessages", start, err) }()

	result, err := s.conversations().UpdateOne(ctx,
		bson.M{"conversation_id": conversationID},
		bson.M{"$set": bson.M{"messages": messages, "updatedAt": updatedAt}},
	)
	if err != nil {
		return &StoreError{Op: "replaceMessages", Err: err}
	}
	if result.MatchedCount == 0 {
		return &NotFoundError{Resource: "conversation", ID: conversationID}
	}
	return nil
}

// DeleteMany removes the conversations with the given ids. Ids that do not
// exist are not an error; the returned count reflects actual deletions.
func (s *MongoStore) DeleteMany(ctx context.Context, conversationIDs []string) (deleted int64, err error) {
	start := time.Now()
	defer func() { observe("deleteMany", start, err) }()

	result, err := s.conversations().DeleteMany(ctx, bson.M{
		"conversation_id": bson.M{"$in": conversationIDs},
	})
	if err != nil {
		return 0, &StoreError{Op: "deleteMany", Err: err}
	}
	return result.DeletedCount, nil
}
