package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CatalogConfig is the operator-editable domain catalog.
type CatalogConfig struct {
	ServiceProviders []string    `mapstructure:"serviceProviders" validate:"required,min=1,dive,required"`
	FeeBrackets      FeeBrackets `mapstructure:"feeBrackets"`
}

// FeeBrackets holds the lower bounds of the medium and high brackets.
// low is fee < MediumFrom, medium is MediumFrom <= fee < HighFrom, high is fee >= HighFrom.
type FeeBrackets struct {
	MediumFrom float64 `mapstructure:"mediumFrom" validate:"gt=0"`
	HighFrom   float64 `mapstructure:"highFrom" validate:"gtfield=MediumFrom"`
}

func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		ServiceProviders: []string{"Asianet", "KCCL", "BSNL", "KFoN"},
		FeeBrackets: FeeBrackets{
			MediumFrom: 600,
			HighFrom:   900,
		},
	}
}

var catalogValidator = validator.New()

type CatalogHolder struct {
	current atomic.Value // holds CatalogConfig
}

// NewStaticCatalogHolder returns a holder that never reloads.
func NewStaticCatalogHolder(cfg CatalogConfig) *CatalogHolder {
	holder := &CatalogHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewCatalogHolder(appCfg Config) (*CatalogHolder, error) {
	v := viper.New()

	if appCfg.CatalogPath != "" {
		v.SetConfigFile(appCfg.CatalogPath)
	} else {
		v.SetConfigName("catalog")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/cabledesk")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CABLEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCatalogConfig()
	v.SetDefault("catalog.serviceProviders", defaults.ServiceProviders)
	v.SetDefault("catalog.feeBrackets.mediumFrom", defaults.FeeBrackets.MediumFrom)
	v.SetDefault("catalog.feeBrackets.highFrom", defaults.FeeBrackets.HighFrom)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if appCfg.CatalogPath != "" || !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg CatalogConfig
	if err := v.UnmarshalKey("catalog", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateCatalog(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticCatalogHolder(cfg)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated CatalogConfig
			if err := v.UnmarshalKey("catalog", &updated); err != nil {
				zap.L().Warn("catalog reload failed", zap.Error(err))
				return
			}
			if err := ValidateCatalog(updated); err != nil {
				zap.L().Warn("invalid catalog ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			zap.L().Info("catalog reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

func (h *CatalogHolder) Get() CatalogConfig {
	return h.current.Load().(CatalogConfig)
}

func ValidateCatalog(cfg CatalogConfig) error {
	return catalogValidator.Struct(cfg)
}
