package plugins

import (
	"isyhub/internal/config"
	"isyhub/internal/core"
	"isyhub/plugins/overview"
)

func init() {
	Register(func(cfg *config.Config) (core.Plugin, bool) {
		return overview.NewPlugin(cfg)
	})
}
