package installation

import (
	"github.com/pelshen/namedraw/internal/installation/repository"
	"github.com/pelshen/namedraw/internal/installation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("installation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
