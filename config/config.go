package config

import (
	"fmt"

	"github.com/spf13/viper"
)

func SetUpConfig(configFileName string) *viper.Viper {
	conf := viper.New()
	conf.SetConfigName(configFileName)
	conf.SetConfigType("toml")
	conf.AddConfigPath("./config")
	conf.AddConfigPath("../config")
	conf.AutomaticEnv()
	setDefaults(conf)
	err := conf.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("reading config file failed: %v", err))
	}

	return conf
}

func setDefaults(conf *viper.Viper) {
	conf.SetDefault("port", 8080)
	conf.SetDefault("poll_interval", "1h")
	conf.SetDefault("host", "http://localhost:8080")
	conf.SetDefault("create_database_schema", false)
	conf.SetDefault("smtp_port", 587)
	conf.SetDefault("jira_issue_type", "Task")
	conf.SetDefault("jira_labels", []string{"release"})
}
