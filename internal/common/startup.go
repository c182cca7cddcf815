package common

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/splashsched/scheduler/internal/common/config"
	"github.com/splashsched/scheduler/internal/common/logging"
)

// LoadConfig reads a "config.yaml" from path (plus any additional
// userSpecifiedConfigs paths, applied last so they take precedence) and
// unmarshals it into config.
func LoadConfig(cfg interface{}, path string, userSpecifiedConfigs []string) {
	viper.SetConfigName("config")
	viper.AddConfigPath(path)
	if err := viper.ReadInConfig(); err != nil {
		log.Error(err)
		os.Exit(-1)
	}
	for _, extra := range userSpecifiedConfigs {
		viper.SetConfigFile(extra)
		if err := viper.MergeInConfig(); err != nil {
			log.Error(err)
			os.Exit(-1)
		}
	}
	if err := viper.Unmarshal(cfg, config.CustomHooks...); err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

// ConfigureLogging installs the process-wide logrus formatter. Pass plain
// to disable colour and timestamps, which is friendlier to log aggregators.
func ConfigureLogging(plain bool) {
	if plain {
		log.SetFormatter(&logging.CommandLineFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)
}
