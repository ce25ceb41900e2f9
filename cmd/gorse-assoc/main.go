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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorse-io/assoc/base/log"
	"github.com/gorse-io/assoc/cmd/version"
	"github.com/gorse-io/assoc/config"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "gorse-assoc",
	Short: "Association rule recommender for movie ratings.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
}

var mineCommand = &cobra.Command{
	Use:   "mine",
	Short: "Mine frequent itemsets and association rules, then recommend movies for a user.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd.Flags())
		report, err := mine(cmd.Context(), conf)
		if err != nil {
			log.Logger().Fatal("failed to mine association rules", zap.Error(err))
		}
		if err = report.Print(os.Stdout); err != nil {
			log.Logger().Fatal("failed to print report", zap.Error(err))
		}
		if metricsFile, _ := cmd.Flags().GetString("metrics-file"); metricsFile != "" {
			if err = writeMetrics(metricsFile); err != nil {
				log.Logger().Fatal("failed to write metrics", zap.Error(err))
			}
		}
	},
}

var importCommand = &cobra.Command{
	Use:   "import",
	Short: "Import ratings and movies from csv files into a database.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd.Flags())
		if conf.DataSource.Database == "" {
			log.Logger().Fatal("database is required")
		}
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		if err := importData(cmd.Context(), conf, batchSize, os.Stderr); err != nil {
			log.Logger().Fatal("failed to import data", zap.Error(err),
				zap.String("database", log.RedactDBURL(conf.DataSource.Database)))
		}
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	addMineFlags(mineCommand.Flags())
	mineCommand.Flags().String("metrics-file", "", "write prometheus metrics to a text file")
	addDataSourceFlags(importCommand.Flags())
	importCommand.Flags().Int("batch-size", 1000, "number of records inserted per batch")
	rootCommand.AddCommand(mineCommand, importCommand, versionCommand)
}

func addMineFlags(flagSet *pflag.FlagSet) {
	addDataSourceFlags(flagSet)
	flagSet.String("like", "", "expression deciding whether a rating is a like")
	flagSet.Float64("min-support", 0, "minimal support of frequent itemsets")
	flagSet.Float64("min-confidence", 0, "minimal confidence of association rules")
	flagSet.Int("jobs", 0, "number of goroutines evaluating candidates")
	flagSet.String("counter", "", "support counter (scan or bitset)")
	flagSet.String("user", "", "user to recommend for")
	flagSet.String("user-order", "", "order of users (id or first_seen)")
}

func addDataSourceFlags(flagSet *pflag.FlagSet) {
	flagSet.String("ratings", "", "ratings csv file")
	flagSet.String("movies", "", "movies csv file")
	flagSet.String("database", "", "database of ratings and movies")
	flagSet.String("table-prefix", "", "prefix of table names")
}

func loadConfig(flagSet *pflag.FlagSet) *config.Config {
	configPath, _ := flagSet.GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	if err = overrideConfig(flagSet, conf); err != nil {
		log.Logger().Fatal("invalid config", zap.Error(err))
	}
	return conf
}

// overrideConfig applies flags set on the command line.
func overrideConfig(flagSet *pflag.FlagSet, conf *config.Config) error {
	stringFlags := map[string]*string{
		"ratings":      &conf.DataSource.RatingsFile,
		"movies":       &conf.DataSource.MoviesFile,
		"database":     &conf.DataSource.Database,
		"table-prefix": &conf.DataSource.TablePrefix,
		"like":         &conf.DataSource.LikeExpression,
		"counter":      &conf.Mining.Counter,
		"user":         &conf.Recommend.UserId,
		"user-order":   &conf.Recommend.UserOrder,
	}
	for name, value := range stringFlags {
		if flagSet.Lookup(name) != nil && flagSet.Changed(name) {
			*value, _ = flagSet.GetString(name)
		}
	}
	floatFlags := map[string]*float64{
		"min-support":    &conf.Mining.MinSupport,
		"min-confidence": &conf.Mining.MinConfidence,
	}
	for name, value := range floatFlags {
		if flagSet.Lookup(name) != nil && flagSet.Changed(name) {
			*value, _ = flagSet.GetFloat64(name)
		}
	}
	if flagSet.Lookup("jobs") != nil && flagSet.Changed("jobs") {
		conf.Mining.Jobs, _ = flagSet.GetInt("jobs")
	}
	return errors.Trace(conf.Validate())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCommand.ExecuteContext(ctx); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
