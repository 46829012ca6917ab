package session

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carrental-web/internal/config"
)

// OpenStore opens the store selected by SESSION_BACKEND.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendBolt:
		log.WithField("path", cfg.SessionPath).Debug("Opening bolt session store")
		return NewBoltStore(cfg.SessionPath)
	case config.SessionBackendMongo:
		log.WithField("db", cfg.MongoDB).Debug("Opening mongo session store")
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.SessionBackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
