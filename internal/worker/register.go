package worker

import (
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"benefits-web/internal/config"
)

func RegisterHandlers(mux *asynq.ServeMux, db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) {
	importHandler := NewImportTaskHandler(db, redisClient, cfg)
	sweepHandler := NewSweepTaskHandler(redisClient, cfg)

	mux.HandleFunc("import:analyze", importHandler.HandleAnalyze)
	mux.HandleFunc("import:approve", importHandler.HandleApprove)
	mux.HandleFunc("undo:sweep", sweepHandler.HandleSweep)
}
