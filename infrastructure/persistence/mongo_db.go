package persistence

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NewMongoDb creates a client; the caller pings it before use.
func NewMongoDb(host, port, user, password, name string) (*mongo.Client, error) {
	if host == "" {
		return nil, fmt.Errorf("mongo host not configured")
	}
	if port == "" {
		port = "27017"
	}
	uri := fmt.Sprintf("mongodb://%s:%s", host, port)
	opts := options.Client().ApplyURI(uri)
	if user != "" {
		opts.SetAuth(options.Credential{Username: user, Password: password, AuthSource: name})
	}
	return mongo.Connect(opts)
}
