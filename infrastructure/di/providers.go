// Package di wires the application together. Providers are consumed by
// wire; wire_gen.go holds the generated injector.
package di

import (
	"context"
	"fmt"

	appcognitive "mnemo-backend/application/cognitive"
	"mnemo-backend/application/ports"
	"mnemo-backend/application/retrieval"
	"mnemo-backend/application/services"
	domaincfg "mnemo-backend/domain/config"
	"mnemo-backend/infrastructure/acl"
	"mnemo-backend/infrastructure/config"
	"mnemo-backend/infrastructure/messaging/eventbridge"
	dynamostore "mnemo-backend/infrastructure/persistence/dynamodb"
	memstore "mnemo-backend/infrastructure/persistence/memory"
	"mnemo-backend/infrastructure/search"
	"mnemo-backend/interfaces/http/rest"
	"mnemo-backend/interfaces/http/rest/handlers"
	"mnemo-backend/pkg/auth"
	"mnemo-backend/pkg/observability"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// Stores bundles every persistence port for one storage driver
type Stores struct {
	ShortTerm     ports.ShortTermMemoryRepository
	LongTerm      ports.LongTermMemoryRepository
	Episodic      ports.EpisodicMemoryRepository
	Notes         ports.NoteRepository
	Entities      ports.EntityRepository
	Relationships ports.RelationshipRepository
	Nodes         ports.CognitiveNodeRepository
}

// ProvideLogger creates the process logger
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideDomainConfig supplies the domain tuning constants
func ProvideDomainConfig(cfg *config.Config) *domaincfg.DomainConfig {
	domain := domaincfg.DefaultDomainConfig()
	if cfg.SyncBatchSize > 0 {
		domain.MaxSyncBatchSize = cfg.SyncBatchSize
	}
	return domain
}

// ProvideStores builds the persistence ports for the configured driver
func ProvideStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.StorageDriver {
	case config.StorageDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamostore.NewClient(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, logger)
		return &Stores{
			ShortTerm:     dynamostore.NewShortTermRepository(client),
			LongTerm:      dynamostore.NewLongTermRepository(client),
			Episodic:      dynamostore.NewEpisodicRepository(client),
			Notes:         dynamostore.NewNoteRepository(client),
			Entities:      dynamostore.NewEntityRepository(client),
			Relationships: dynamostore.NewRelationshipRepository(client),
			Nodes:         dynamostore.NewCognitiveNodeRepository(client),
		}, nil

	case config.StorageMemory:
		store := memstore.NewStore()
		return &Stores{
			ShortTerm:     store.ShortTermMemories(),
			LongTerm:      store.LongTermMemories(),
			Episodic:      store.EpisodicMemories(),
			Notes:         store.Notes(),
			Entities:      store.Entities(),
			Relationships: store.Relationships(),
			Nodes:         store.CognitiveNodes(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// ProvideSearcher builds the circuit-breaker-guarded search capability
func ProvideSearcher(stores *Stores, logger *zap.Logger) ports.CognitiveSearcher {
	inner := search.NewTermSearcher(stores.Nodes)
	return acl.NewCognitiveSearchACL(inner, acl.DefaultBreakerConfig(), logger)
}

// ProvideEventPublisher builds the sync event publisher. Without a bus name
// events are dropped.
func ProvideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	if cfg.EventBusName == "" {
		return eventbridge.NewNoopPublisher(), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger), nil
}

// ProvideMetrics builds the CloudWatch metrics emitter, disabled unless
// configured
func ProvideMetrics(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.Metrics, error) {
	if !cfg.EnableMetrics {
		return observability.NewMetrics("Mnemo", nil, logger), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return observability.NewMetrics("Mnemo", awscloudwatch.NewFromConfig(awsCfg), logger), nil
}

// ProvideRetrievalTuner builds the hot-reloadable retrieval presets
func ProvideRetrievalTuner(cfg *config.Config, logger *zap.Logger) (*config.RetrievalTuner, error) {
	return config.NewRetrievalTuner(cfg.RetrievalOverridesPath, logger)
}

// ProvideEngine builds the retrieval engine
func ProvideEngine(stores *Stores, domain *domaincfg.DomainConfig, logger *zap.Logger) *retrieval.Engine {
	return retrieval.NewEngine(
		stores.ShortTerm,
		stores.LongTerm,
		stores.Episodic,
		stores.Notes,
		stores.Entities,
		stores.Relationships,
		domain,
		logger,
	)
}

// ProvideAdapter builds the cognitive adapter
func ProvideAdapter(
	stores *Stores,
	searcher ports.CognitiveSearcher,
	publisher ports.EventPublisher,
	domain *domaincfg.DomainConfig,
	logger *zap.Logger,
) *appcognitive.Adapter {
	return appcognitive.NewAdapter(
		stores.Entities,
		stores.Relationships,
		stores.Nodes,
		searcher,
		publisher,
		domain,
		logger,
	)
}

// ProvideIngestionService builds the ingestion entry point
func ProvideIngestionService(
	engine *retrieval.Engine,
	adapter *appcognitive.Adapter,
	stores *Stores,
	logger *zap.Logger,
) *services.IngestionService {
	return services.NewIngestionService(engine, adapter, stores.Entities, logger)
}

// ProvideGraphService builds the graph query service
func ProvideGraphService(
	stores *Stores,
	adapter *appcognitive.Adapter,
	logger *zap.Logger,
) *services.GraphService {
	return services.NewGraphService(stores.Entities, stores.Relationships, adapter, logger)
}

// ProvideAuthValidator builds the token validator
func ProvideAuthValidator(cfg *config.Config) (*auth.Validator, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "development-secret-change-in-production"
	}
	return auth.NewValidator(secret, cfg.JWTIssuer)
}

// ProvideRouter builds the configured HTTP router
func ProvideRouter(
	engine *retrieval.Engine,
	ingestion *services.IngestionService,
	graphService *services.GraphService,
	stores *Stores,
	tuner *config.RetrievalTuner,
	validator *auth.Validator,
	metrics *observability.Metrics,
	domain *domaincfg.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	retrievalHandler := handlers.NewRetrievalHandler(engine, ingestion, tuner, metrics, logger)
	syncHandler := handlers.NewSyncHandler(ingestion, metrics, logger)
	entityHandler := handlers.NewEntityHandler(stores.Entities, graphService, domain, logger)
	graphHandler := handlers.NewGraphHandler(stores.Relationships, graphService, domain, logger)

	return rest.NewRouter(
		retrievalHandler,
		syncHandler,
		entityHandler,
		graphHandler,
		validator,
		cfg.EnableCORS,
		logger,
	)
}
