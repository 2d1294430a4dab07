package usage

import (
	"github.com/pelshen/namedraw/internal/usage/repository"
	"github.com/pelshen/namedraw/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
