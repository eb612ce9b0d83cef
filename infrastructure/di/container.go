package di

import (
	appcognitive "mnemo-backend/application/cognitive"
	"mnemo-backend/application/ports"
	"mnemo-backend/application/retrieval"
	"mnemo-backend/application/services"
	domaincfg "mnemo-backend/domain/config"
	"mnemo-backend/infrastructure/config"
	"mnemo-backend/interfaces/http/rest"
	"mnemo-backend/pkg/auth"
	"mnemo-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DomainConfig  *domaincfg.DomainConfig
	Stores        *Stores
	Searcher      ports.CognitiveSearcher
	Publisher     ports.EventPublisher
	Metrics       *observability.Metrics
	Tuner         *config.RetrievalTuner
	Engine        *retrieval.Engine
	Adapter       *appcognitive.Adapter
	Ingestion     *services.IngestionService
	GraphService  *services.GraphService
	AuthValidator *auth.Validator
	Router        *rest.Router
}

// Close releases long-lived resources held by the container
func (c *Container) Close() {
	if c.Tuner != nil {
		c.Tuner.Stop()
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
}
