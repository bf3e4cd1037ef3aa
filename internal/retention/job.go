package retention

import (
	"context"
	"fmt"
	"time"
)

// Pruner deletes rows created before cutoff and reports how many went.
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job is one table's retention rule.
type Job struct {
	Name   string
	Pruner Pruner
	MaxAge time.Duration
}

func (j Job) validate() error {
	if j.Name == "" {
		return fmt.Errorf("job name required")
	}
	if j.Pruner == nil {
		return fmt.Errorf("job %s: pruner required", j.Name)
	}
	if j.MaxAge <= 0 {
		return fmt.Errorf("job %s: max age must be positive", j.Name)
	}
	return nil
}
