package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"benefits-web/internal/config"
	"benefits-web/internal/undo"
	"benefits-web/internal/utils"
)

// SweepTaskHandler drops expired undo snapshot references
type SweepTaskHandler struct {
	snapshots undo.Store
	log       *logrus.Logger
}

func NewSweepTaskHandler(redisClient *redis.Client, cfg *config.Config) *SweepTaskHandler {
	return &SweepTaskHandler{
		snapshots: undo.NewRedisStore(redisClient, cfg.UndoWindow),
		log:       utils.GetLogger(),
	}
}

func (h *SweepTaskHandler) HandleSweep(ctx context.Context, _ *asynq.Task) error {
	removed, err := h.snapshots.Sweep(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		h.log.WithField("removed", removed).Info("Swept expired undo snapshots")
	}
	return nil
}
