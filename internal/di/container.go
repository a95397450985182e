package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"mailprobe/internal/config"
	"mailprobe/internal/disposable"
	"mailprobe/internal/logging"
	"mailprobe/internal/validator"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideComponents(container); err != nil {
		return nil, err
	}
	return container, nil
}

// BuildContainerWith wires the components around an already-built config
// and logger. The CLI uses it after applying its flags.
func BuildContainerWith(cfg *config.Config, logger *zap.Logger) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() *zap.Logger { return logger }); err != nil {
		return nil, err
	}

	if err := provideComponents(container); err != nil {
		return nil, err
	}
	return container, nil
}

func provideComponents(container *dig.Container) error {
	providers := []any{
		newLifecycle,
		newResolver,
		newDisposableSource,
		disposable.NewSet,
		newCacheStore,
		newDialer,
		newProber,
		newScorer,
		newValidatorOptions,
		validator.New,
		func(v *validator.Validator) validator.Checker { return v },
		newBatchRunner,
	}
	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return err
		}
	}
	return nil
}
