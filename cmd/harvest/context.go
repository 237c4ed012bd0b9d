package main

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cwygoda/harvest/internal/adapter/sqlite"
	"github.com/cwygoda/harvest/internal/config"
	"github.com/cwygoda/harvest/internal/domain"
	"github.com/cwygoda/harvest/internal/logging"
)

var errLedgerDisabled = errors.New(`run ledger is disabled (ledger_path = "")`)

type commandContext struct {
	configFlag  *string
	profileFlag *string

	settingsOnce sync.Once
	settings     config.Settings
	settingsErr  error
}

func newCommandContext(configFlag, profileFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		profileFlag: profileFlag,
	}
}

func (c *commandContext) ensureSettings() (config.Settings, error) {
	c.settingsOnce.Do(func() {
		var path, profile string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if c.profileFlag != nil {
			profile = strings.TrimSpace(*c.profileFlag)
		}
		c.settings, c.settingsErr = config.Load(path, profile)
	})
	return c.settings, c.settingsErr
}

func (c *commandContext) logger(s config.Settings, out io.Writer) (zerolog.Logger, error) {
	return logging.New(logging.Options{Level: s.Log.Level, Format: s.Log.Format, Out: out})
}

// openLedger opens the run ledger of s. It returns errLedgerDisabled when no
// ledger is configured.
func (c *commandContext) openLedger(s config.Settings) (*domain.RunService, func() error, error) {
	if s.LedgerPath == "" {
		return nil, nil, errLedgerDisabled
	}
	repo, err := sqlite.New(s.LedgerPath)
	if err != nil {
		return nil, nil, err
	}
	return domain.NewRunService(repo), repo.Close, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
