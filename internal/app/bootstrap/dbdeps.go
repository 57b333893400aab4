// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	directorystore "github.com/classline/classline/internal/app/store/directory"
	messagestore "github.com/classline/classline/internal/app/store/messages"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// The stores are built over the Mongo database in ConnectDB and shared
// by the handler graph.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Directory directorystore.Store
	Messages  messagestore.Store
}
