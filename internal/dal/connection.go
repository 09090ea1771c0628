// Package dal provides the Couchbase-backed persistence layer for the
// patient registry, visit and claim records, and the import log.
package dal

import (
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"

	"carelytics.io/homehealth/internal/config"
)

// Connection represents the Couchbase connection
type Connection struct {
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	bucketName string
	scopeName  string
}

// NewConnection creates a new Couchbase connection from configuration
func NewConnection(cfg config.Config) (*Connection, error) {
	log.Info().
		Str("url", cfg.CouchbaseURL).
		Str("bucket", cfg.CouchbaseBucket).
		Msg("Creating Couchbase connection")

	cluster, err := gocb.Connect(cfg.CouchbaseURL, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.CouchbaseUsername,
			Password: cfg.CouchbasePassword,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Couchbase cluster")
		return nil, fmt.Errorf("connect cluster: %w", err)
	}

	bucket := cluster.Bucket(cfg.CouchbaseBucket)
	err = bucket.WaitUntilReady(30*time.Second, &gocb.WaitUntilReadyOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue, gocb.ServiceTypeQuery},
	})
	if err != nil {
		log.Error().Err(err).Msg("Couchbase bucket not ready")
		return nil, fmt.Errorf("bucket not ready: %w", err)
	}

	log.Info().Msg("Couchbase connection created successfully")
	return &Connection{
		cluster:    cluster,
		bucket:     bucket,
		bucketName: cfg.CouchbaseBucket,
		scopeName:  cfg.CouchbaseScope,
	}, nil
}

// Close closes the Couchbase connection
func (c *Connection) Close() error {
	if c.cluster != nil {
		return c.cluster.Close(nil)
	}
	return nil
}

func (c *Connection) collection(name string) *gocb.Collection {
	return c.bucket.Scope(c.scopeName).Collection(name)
}

// keyspace renders the fully qualified bucket.scope.collection path for
// N1QL queries
func (c *Connection) keyspace(collection string) string {
	return fmt.Sprintf("`%s`.`%s`.`%s`", c.bucketName, c.scopeName, collection)
}
