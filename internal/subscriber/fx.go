package subscriber

import (
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cabledesk/internal/clock"
	"github.com/smallbiznis/cabledesk/internal/config"
	"github.com/smallbiznis/cabledesk/internal/subscriber/code"
	"github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/internal/subscriber/repository"
	"github.com/smallbiznis/cabledesk/internal/subscriber/service"
	"github.com/smallbiznis/cabledesk/pkg/telemetry"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("subscriber.service",
	fx.Provide(newSnowflakeNode),
	fx.Provide(provideStore),
	fx.Provide(provideCodeGenerator),
	fx.Provide(service.New),
)

type storeParams struct {
	fx.In

	Config    config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	GenID     *snowflake.Node
	Clock     clock.Clock
	Telemetry *telemetry.Metrics `optional:"true"`
}

type storeResult struct {
	fx.Out

	Repo      domain.Repository
	Sequencer domain.Sequencer
}

// provideStore selects the record store backend from config.
func provideStore(p storeParams) storeResult {
	if p.Config.UsesSQLStore() {
		repo := repository.Instrument(repository.NewSQL(p.DB, p.GenID, p.Clock), config.StoreBackendSQL, p.Telemetry)
		return storeResult{Repo: repo, Sequencer: repository.NewSQLSequencer(p.DB)}
	}

	prefix := p.Config.Redis.KeyPrefix
	repo := repository.Instrument(repository.NewRedis(p.Redis, prefix, p.GenID, p.Clock), config.StoreBackendRedis, p.Telemetry)
	return storeResult{Repo: repo, Sequencer: repository.NewRedisSequencer(p.Redis, prefix, repo)}
}

func provideCodeGenerator(cfg config.Config, seq domain.Sequencer, clk clock.Clock) (*code.Generator, error) {
	return code.NewGenerator(cfg.SubscriberCodeTemplate, seq, clk)
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
