package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"gantry/internal/config"
	"gantry/internal/protocol"
)

type commandContext struct {
	addrFlag   *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addrFlag, configFlag *string) *commandContext {
	return &commandContext{
		addrFlag:   addrFlag,
		configFlag: configFlag,
	}
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
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) addr() string {
	if c.addrFlag != nil && strings.TrimSpace(*c.addrFlag) != "" {
		return strings.TrimSpace(*c.addrFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.Paths.Listen
	}
	return "127.0.0.1:9000"
}

func (c *commandContext) withClient(fn func(*protocol.Client) error) error {
	addr := c.addr()
	client, err := protocol.Dial(addr)
	if err != nil {
		return wrapDialError(err, addr)
	}
	defer client.Close()
	return fn(client)
}

func wrapDialError(err error, addr string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon: %s refused the connection; start the daemon with `gantryd`", addr)
	}
	return fmt.Errorf("connect to daemon at %s: %w", addr, err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// checkResponse maps a daemon failure response to a command error.
func checkResponse(resp *protocol.Response) error {
	if resp == nil {
		return errors.New("empty response from daemon")
	}
	if !resp.Success {
		return errors.New(resp.Message)
	}
	return nil
}
