package routing

import (
	"context"
	"fmt"

	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
	"github.com/angelmondragon/replyflow-backend/pkg/enums"
	"github.com/angelmondragon/replyflow-backend/pkg/logger"
)

// Resolver finds the routes an event fans out to.
type Resolver struct {
	repo Repository
	logg *logger.Logger
}

func NewResolver(repo Repository, logg *logger.Logger) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("routes repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{repo: repo, logg: logg}, nil
}

// Resolve returns zero or more active routes. Zero routes is a normal outcome
// and is only logged.
func (r *Resolver) Resolve(ctx context.Context, accountID string, eventType enums.EventType, subType string) ([]models.AutomationRoute, error) {
	routes, err := r.repo.Resolve(ctx, accountID, eventType, subType)
	if err != nil {
		return nil, fmt.Errorf("resolve routes: %w", err)
	}
	if len(routes) == 0 {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"event_type": string(eventType),
			"sub_type":   subType,
		}), "route.none")
	}
	return routes, nil
}
