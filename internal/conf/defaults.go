// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// Engine defaults applied when neither the config file nor the command
// line provides a value.
const (
	DefaultSampleRate = 44100.0
	DefaultBlocksize  = 512
	DefaultChannels   = 2
)

// setDefaultConfig registers default values with viper.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("quiet", false)

	viper.SetDefault("main.name", "plughost")

	// Log file output
	viper.SetDefault("main.log.enabled", false)
	viper.SetDefault("main.log.path", "logs/plughost.log")
	viper.SetDefault("main.log.maxsize", 10)
	viper.SetDefault("main.log.maxage", 30)
	viper.SetDefault("main.log.maxbackups", 3)

	// Audio engine defaults
	viper.SetDefault("audio.samplerate", DefaultSampleRate)
	viper.SetDefault("audio.blocksize", DefaultBlocksize)
	viper.SetDefault("audio.channels", DefaultChannels)

	viper.SetDefault("plugins.tailseconds", 0.0)
}
