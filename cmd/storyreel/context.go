package main

import (
	"strings"
	"sync"

	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/queue"
	"storyreel/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) withProducer(fn func(*config.Config, *queue.Store, *workflow.Producer) error) error {
	return c.withStore(func(cfg *config.Config, store *queue.Store) error {
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			return err
		}
		return fn(cfg, store, workflow.NewProducer(cfg, store, logger))
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
