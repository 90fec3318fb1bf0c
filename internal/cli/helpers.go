package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/store"
	"github.com/manifoldco/promptui"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(appCfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// runNotFound turns store lookup errors into user-facing messages.
func runNotFound(id string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("run '%s' not found", id)
	case errors.Is(err, store.ErrAmbiguous):
		return fmt.Errorf("run id '%s' matches more than one run; use more characters", id)
	}
	return fmt.Errorf("failed to get run: %w", err)
}

// reportBuilder returns a builder backed by the configured model, or a
// fallback-only builder when no API key is set or offline is requested.
func reportBuilder(offline bool) *report.Builder {
	if offline {
		return report.NewBuilder(nil, logger)
	}

	gen, err := report.NewOpenAIGenerator(report.OpenAIOptions{
		APIKey:      appCfg.Report.APIKey,
		Model:       appCfg.Report.Model,
		BaseURL:     appCfg.Report.BaseURL,
		MaxTokens:   appCfg.Report.MaxTokens,
		Temperature: appCfg.Report.Temperature,
	})
	if err != nil {
		logger.Debug().Err(err).Msg("model report disabled")
		return report.NewBuilder(nil, logger)
	}
	return report.NewBuilder(gen, logger)
}

// confirm asks a yes/no question. Interrupts exit quietly.
func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		if err == promptui.ErrAbort {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
