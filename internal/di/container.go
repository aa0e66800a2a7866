package di

import (
	"io"
	"time"

	feedService "github.com/EckhartOSB/feedmbox/internal/modules/feed/service"
	ledgerRepo "github.com/EckhartOSB/feedmbox/internal/modules/ledger/repository"
	messageService "github.com/EckhartOSB/feedmbox/internal/modules/message/service"
	processorService "github.com/EckhartOSB/feedmbox/internal/modules/processor/service"
	renderService "github.com/EckhartOSB/feedmbox/internal/modules/render/service"
	subscriptionService "github.com/EckhartOSB/feedmbox/internal/modules/subscription/service"
	"github.com/EckhartOSB/feedmbox/internal/shared/config"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup wires the dependency injection container. out receives the
// mbox stream.
func Setup(cfg *config.Config, out io.Writer) (do.Injector, error) {
	injector := do.New()

	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		return cfg, nil
	})

	do.Provide(injector, func(i do.Injector) (ledgerRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := ledgerRepo.Open(cfg.Database)
		if err != nil {
			return nil, oops.With("database", cfg.Database, "context", "opening ledger").Wrap(err)
		}
		return repo, nil
	})

	do.Provide(injector, func(i do.Injector) (*subscriptionService.Service, error) {
		return subscriptionService.New(), nil
	})

	do.Provide(injector, func(i do.Injector) (*feedService.Fetcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return feedService.NewFetcher(time.Duration(cfg.Timeout) * time.Second), nil
	})

	do.Provide(injector, func(i do.Injector) (*feedService.Parser, error) {
		return feedService.NewParser(), nil
	})

	do.Provide(injector, func(i do.Injector) (*renderService.Service, error) {
		return renderService.New(), nil
	})

	do.Provide(injector, func(i do.Injector) (*messageService.Emitter, error) {
		return messageService.NewEmitter(out), nil
	})

	do.Provide(injector, func(i do.Injector) (*processorService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ledger := do.MustInvoke[ledgerRepo.Repository](i)
		fetcher := do.MustInvoke[*feedService.Fetcher](i)
		parser := do.MustInvoke[*feedService.Parser](i)
		renderer := do.MustInvoke[*renderService.Service](i)
		emitter := do.MustInvoke[*messageService.Emitter](i)
		return processorService.New(cfg, ledger, fetcher, parser, renderer, emitter), nil
	})

	return injector, nil
}

// Shutdown releases everything the container owns.
func Shutdown(injector do.Injector) error {
	if repo, err := do.Invoke[ledgerRepo.Repository](injector); err == nil && repo != nil {
		return repo.Close()
	}
	return nil
}
