package errors

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"

	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

// CloseSentryTimeout is the timeout for flushing Sentry events before shutdown.
const CloseSentryTimeout = 2 * time.Second

// InitializeSentry initializes the Sentry SDK when error reporting is enabled.
func InitializeSentry(config *schema.SentryConfig) error {
	if config == nil || !config.Enabled {
		return nil
	}

	sampleRate := config.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.DSN,
		Environment:      config.Environment,
		Release:          config.Release,
		Debug:            config.Debug,
		SampleRate:       sampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		for key, value := range config.Tags {
			scope.SetTag(key, value)
		}
	})

	return nil
}

// CloseSentry flushes any pending Sentry events.
func CloseSentry() {
	if sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.Flush(CloseSentryTimeout)
}

// CaptureError reports err to Sentry. It is a no-op when Sentry was not initialized.
// The report is built by cockroachdb/errors so only safe details leave the process.
func CaptureError(err error) {
	if err == nil {
		return
	}

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}

	event, extraDetails := errors.BuildSentryReport(err)

	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range extraDetails {
			if contextMap, ok := value.(map[string]any); ok {
				scope.SetContext(key, contextMap)
			}
		}

		for _, hint := range errors.GetAllHints(err) {
			scope.AddBreadcrumb(&sentry.Breadcrumb{
				Type:     "info",
				Category: "hint",
				Message:  hint,
				Level:    sentry.LevelInfo,
			}, 100)
		}

		if event.Tags == nil {
			event.Tags = map[string]string{}
		}
		if stage, ok := GetStage(err); ok {
			event.Tags["fabkit.stage"] = string(stage)
		}
		if exitCode := GetExitCode(err); exitCode > ExitCodeGeneric {
			event.Tags["fabkit.exit_code"] = fmt.Sprintf("%d", exitCode)
		}

		hub.CaptureEvent(event)
	})
}
