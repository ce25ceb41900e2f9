// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/assoc/common/expression"
	"github.com/gorse-io/assoc/dataset"
	"github.com/gorse-io/assoc/logics"
	"github.com/gorse-io/assoc/storage"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "GORSE_ASSOC"

// Config is the configuration for association rule mining.
type Config struct {
	Mining     MiningConfig     `mapstructure:"mining"`
	DataSource DataSourceConfig `mapstructure:"data_source"`
	Recommend  RecommendConfig  `mapstructure:"recommend"`
}

type MiningConfig struct {
	MinSupport    float64 `mapstructure:"min_support" validate:"gt=0,lte=1"`
	MinConfidence float64 `mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	Jobs          int     `mapstructure:"jobs" validate:"gte=1"`
	Counter       string  `mapstructure:"counter" validate:"oneof=scan bitset"`
}

func (c *MiningConfig) MinerConfig() logics.MinerConfig {
	return logics.MinerConfig{
		MinSupport: c.MinSupport,
		Jobs:       c.Jobs,
		Counter:    c.Counter,
	}
}

func (c *MiningConfig) RuleConfig() logics.RuleConfig {
	return logics.RuleConfig{
		MinConfidence: c.MinConfidence,
		Jobs:          c.Jobs,
		Counter:       c.Counter,
	}
}

type DataSourceConfig struct {
	RatingsFile    string `mapstructure:"ratings_file" validate:"required_without=Database"`
	MoviesFile     string `mapstructure:"movies_file" validate:"required_with=RatingsFile"`
	Database       string `mapstructure:"database" validate:"omitempty,data_store"`
	TablePrefix    string `mapstructure:"table_prefix"`
	LikeExpression string `mapstructure:"like_expression" validate:"like_expression"`
}

type RecommendConfig struct {
	UserId    string `mapstructure:"user_id"`
	UserOrder string `mapstructure:"user_order" validate:"oneof=id first_seen"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Mining: MiningConfig{
			MinSupport:    0.3,
			MinConfidence: 0.4,
			Jobs:          1,
			Counter:       logics.CounterScan,
		},
		DataSource: DataSourceConfig{
			RatingsFile:    "ratings_small.csv",
			MoviesFile:     "movies_metadata.csv",
			LikeExpression: expression.DefaultLikeExpression,
		},
		Recommend: RecommendConfig{
			UserOrder: dataset.UserOrderId,
		},
	}
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("data_store", func(fl validator.FieldLevel) bool {
		prefixes := []string{
			storage.MySQLPrefix,
			storage.PostgresPrefix,
			storage.PostgreSQLPrefix,
			storage.SQLitePrefix,
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(fl.Field().String(), prefix) {
				return true
			}
		}
		return false
	}); err != nil {
		return errors.Trace(err)
	}
	if err := validate.RegisterValidation("like_expression", func(fl validator.FieldLevel) bool {
		_, err := expression.ParseLikeExpression(fl.Field().String())
		return err == nil
	}); err != nil {
		return errors.Trace(err)
	}
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [mining]
	v.SetDefault("mining.min_support", defaultConfig.Mining.MinSupport)
	v.SetDefault("mining.min_confidence", defaultConfig.Mining.MinConfidence)
	v.SetDefault("mining.jobs", defaultConfig.Mining.Jobs)
	v.SetDefault("mining.counter", defaultConfig.Mining.Counter)
	// [data_source]
	v.SetDefault("data_source.ratings_file", defaultConfig.DataSource.RatingsFile)
	v.SetDefault("data_source.movies_file", defaultConfig.DataSource.MoviesFile)
	v.SetDefault("data_source.database", defaultConfig.DataSource.Database)
	v.SetDefault("data_source.table_prefix", defaultConfig.DataSource.TablePrefix)
	v.SetDefault("data_source.like_expression", defaultConfig.DataSource.LikeExpression)
	// [recommend]
	v.SetDefault("recommend.user_id", defaultConfig.Recommend.UserId)
	v.SetDefault("recommend.user_order", defaultConfig.Recommend.UserOrder)
}

// LoadConfig loads configuration from a toml file. Values are overridden by environment
// variables such as GORSE_ASSOC_MINING_MIN_SUPPORT. Defaults are used if path is empty.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigType("toml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
