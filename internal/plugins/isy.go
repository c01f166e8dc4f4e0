package plugins

import (
	"isyhub/internal/config"
	"isyhub/internal/core"
	"isyhub/plugins/isy"
)

func init() {
	Register(func(cfg *config.Config) (core.Plugin, bool) {
		return isy.NewPlugin(cfg)
	})
}
