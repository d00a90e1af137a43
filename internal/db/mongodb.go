package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ukane-philemon/grades/internal/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// errConnectorClosed is returned by Connector.Database after Shutdown.
var errConnectorClosed = errors.New("database connector has been shutdown")

const (
	appName                = "grades"
	serverSelectionTimeout = 10 * time.Second
)

// clientOptions are the options every grades client connects with. Embedded
// documents decode as bson.M so stored records serialize to plain JSON
// objects.
func clientOptions(connectionURL string) *options.ClientOptions {
	return options.Client().
		ApplyURI(connectionURL).
		SetAppName(appName).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
}

// connect opens a client for dbName and checks the primary is reachable.
// The client is disconnected again if the ping fails.
func connect(ctx context.Context, dbName, connectionURL string) (*mongo.Database, error) {
	switch {
	case connectionURL == "":
		return nil, errors.New("missing mongodb database connection URL")
	case dbName == "":
		return nil, errors.New("database name is required")
	}

	client, err := mongo.Connect(ctx, clientOptions(connectionURL))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("client.Ping error: %w", err)
	}

	return client.Database(dbName), nil
}

// Connector hands out a single process wide *mongo.Database. The connection
// is made on the first call to Database and every later call, from any
// goroutine, gets the same database or the same connection error.
type Connector struct {
	dbName        string
	connectionURL string
	log           *logger.Logger

	once sync.Once
	db   *mongo.Database
	err  error
}

// NewConnector creates a *Connector. No connection is attempted until
// Database is called.
func NewConnector(dbName, connectionURL string, log *logger.Logger) *Connector {
	return &Connector{
		dbName:        dbName,
		connectionURL: connectionURL,
		log:           log,
	}
}

// Database returns the shared database, connecting on first use.
func (c *Connector) Database(ctx context.Context) (*mongo.Database, error) {
	c.once.Do(func() {
		c.db, c.err = connect(ctx, c.dbName, c.connectionURL)
		if c.err == nil {
			c.log.Info("Database has been connected and pinged successfully", "db", c.dbName)
		}
	})
	return c.db, c.err
}

// Shutdown disconnects the shared database if a connection was made. Calls
// to Database after Shutdown return an error unless a connection already
// existed.
func (c *Connector) Shutdown(ctx context.Context) error {
	c.once.Do(func() {
		c.err = errConnectorClosed
	})

	if c.db == nil {
		return nil
	}

	err := c.db.Client().Disconnect(ctx)
	if err != nil {
		return fmt.Errorf("client.Disconnect error: %w", err)
	}

	c.log.Info("Database has been shutdown successfully")
	return nil
}
