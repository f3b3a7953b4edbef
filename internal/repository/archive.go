package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"goban/internal/bootstrap"
	"goban/internal/domain/game"
	errs "goban/internal/errors"
)

const archiveCollection = "games_archive"

// MongoArchive stores finished games. Live sessions never touch Mongo.
type MongoArchive struct {
	cfg   bootstrap.Config
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewMongoArchive(cfg bootstrap.Config, log *zap.SugaredLogger, db *mongo.Database) *MongoArchive {
	return &MongoArchive{
		cfg:   cfg,
		log:   log,
		mongo: db,
	}
}

func (m *MongoArchive) ArchiveGame(ctx context.Context, rec game.ArchiveRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := m.mongo.Collection(archiveCollection)

	_, err := collection.InsertOne(ctx, rec)
	if err != nil {
		m.log.Errorf("failed to insert finished game %s: %v", rec.GameID, err)
		return err
	}

	m.log.Infof("game %s archived with result %s", rec.GameID, rec.Result)
	return nil
}

func (m *MongoArchive) GetArchiveGames(ctx context.Context, pageNum int) ([]game.ArchiveRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pageNum < 1 {
		pageNum = 1
	}
	limit := int64(m.cfg.PageLimitArchive)
	opts := options.Find().
		SetSort(bson.M{"finished_at": -1}).
		SetSkip(int64(pageNum-1) * limit).
		SetLimit(limit)

	cursor, err := m.mongo.Collection(archiveCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		m.log.Error(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []game.ArchiveRecord
	for cursor.Next(ctx) {
		var rec game.ArchiveRecord
		if err := cursor.Decode(&rec); err != nil {
			m.log.Error(err)
			return nil, err
		}
		result = append(result, rec)
	}
	return result, cursor.Err()
}

func (m *MongoArchive) GetArchiveGameByID(ctx context.Context, gameID string) (*game.ArchiveRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"game_id": gameID}

	var rec game.ArchiveRecord
	err := m.mongo.Collection(archiveCollection).FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrGameNotFound
	} else if err != nil {
		m.log.Error(err)
		return nil, err
	}

	return &rec, nil
}
