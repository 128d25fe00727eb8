// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "devserve")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "devserve.log")
	viper.SetDefault("main.log.maxsize", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxage", 28)

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", "5183")
	viper.SetDefault("server.root", ".")
	viper.SetDefault("server.strict", true)
	viper.SetDefault("server.allow", []string{})
	viper.SetDefault("server.deny", []string{`\.env(\..*)?$`})
	viper.SetDefault("server.headers", map[string]string{})

	viper.SetDefault("server.log.enabled", true)
	viper.SetDefault("server.log.path", "logs/web.log")
	viper.SetDefault("server.log.maxsize", 100)
	viper.SetDefault("server.log.maxbackups", 3)
	viper.SetDefault("server.log.maxage", 28)
}
