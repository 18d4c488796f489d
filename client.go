package zensegur

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Client struct {
	mongoClient *mongo.Client
	database    string
}

func NewClient(ctx context.Context, cfg *Config, logger *logrus.Logger, telemetry *Telemetry) (*Client, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetRegistry(MongoRegistry).
		SetLoggerOptions(driverLoggerOptions(logger))

	if telemetry.Enabled() {
		clientOptions.SetMonitor(telemetry.mongoMonitor())
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, connectionError("connect", err)
	}

	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, connectionError("ping", err)
	}

	logger.WithFields(logrus.Fields{"database": cfg.Database}).Debug("connected to MongoDB")

	return &Client{
		mongoClient: mongoClient,
		database:    cfg.Database,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.mongoClient.Disconnect(ctx)
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.mongoClient.Ping(ctx, readpref.Nearest()); err != nil {
		return connectionError("ping", err)
	}
	return nil
}

func (c *Client) Database() *mongo.Database {
	return c.mongoClient.Database(c.database)
}

func NewRecipeRepository(c *Client, cfg *Config) *MongoRepository[Recipe] {
	return NewMongoRepository[Recipe](c.Database(), cfg.Collection).WithValidation(NewValidator())
}
