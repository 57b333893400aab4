// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/classline/classline/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// ClassLine uses it to seed the bootstrap admin so a fresh deployment
// has an account that can provision everything else.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.BootstrapAdminName != "" {
		if err := ensureBootstrapAdmin(ctx, deps, appCfg.BootstrapAdminName, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureBootstrapAdmin creates the named admin user if it does not
// exist, or promotes an existing user of the same name to admin.
// Matching is by folded name, consistent with the directory store.
func ensureBootstrapAdmin(ctx context.Context, deps DBDeps, fullName string, logger *zap.Logger) error {
	users := deps.MongoDatabase.Collection("users")
	nameCI := text.Fold(fullName)

	var existing models.User
	err := users.FindOne(ctx, bson.M{"full_name_ci": nameCI}).Decode(&existing)
	if err == nil {
		if existing.Role == models.RoleAdmin {
			return nil
		}
		now := time.Now().UTC()
		_, err = users.UpdateOne(ctx,
			bson.M{"_id": existing.ID},
			bson.M{"$set": bson.M{
				"role":       models.RoleAdmin,
				"updated_at": now,
			}})
		if err != nil {
			return fmt.Errorf("promote bootstrap admin: %w", err)
		}
		logger.Info("promoted existing user to bootstrap admin",
			zap.String("full_name", fullName),
			zap.String("previous_role", existing.Role))
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	now := time.Now().UTC()
	admin := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: nameCI,
		Role:       models.RoleAdmin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := users.InsertOne(ctx, admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	logger.Info("created bootstrap admin", zap.String("full_name", fullName))
	return nil
}
