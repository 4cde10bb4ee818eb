package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aremuc/home-monitor-iot/internal/blob"
	"github.com/aremuc/home-monitor-iot/internal/config"
	"github.com/aremuc/home-monitor-iot/internal/ingest"
	"github.com/aremuc/home-monitor-iot/internal/query"
	"github.com/aremuc/home-monitor-iot/internal/store"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	pipeline *ingest.Pipeline
	queries  *query.Service
	blobs    blob.Store
	records  store.RecordStore
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, pipeline *ingest.Pipeline, queries *query.Service, blobs blob.Store, records store.RecordStore) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		pipeline: pipeline,
		queries:  queries,
		blobs:    blobs,
		records:  records,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	router.POST("/image", h.UploadImage)
	router.GET("/image/:filename", h.GetImage)

	router.GET("/tags", h.TagsInWindow)
	router.GET("/personDetected", h.PersonDetected)
	router.GET("/popularTags", h.PopularTags)
}
