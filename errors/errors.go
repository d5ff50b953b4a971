package errors

import (
	"github.com/cockroachdb/errors"
)

// Authentication and authorization.
var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrUnauthorized      = errors.New("not authorized")
	ErrSessionExpired    = errors.New("session expired")
	ErrInvalidAuthMethod = errors.New("invalid authentication method")

	ErrInvalidSecretReference = errors.New("invalid secret reference")
	ErrSecretUnavailable      = errors.New("secret is not available")
)

// Service responses.
var (
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrRequestFailed    = errors.New("API request failed")
	ErrInvalidResponse  = errors.New("invalid API response")
	ErrOperationFailed  = errors.New("long running operation failed")
	ErrOperationTimeout = errors.New("timed out waiting for long running operation")
	ErrMutatingRequest  = errors.New("mutating requests are not allowed on the read-only path")
)

// Addressing and resolution.
var (
	ErrInvalidPath         = errors.New("invalid path")
	ErrUnknownItemType     = errors.New("unknown item type")
	ErrUnsupportedItemType = errors.New("item type not supported for this operation")
	ErrWorkspaceNotFound   = errors.New("workspace not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrAmbiguousItem       = errors.New("more than one item matches")
	ErrDefinitionEmpty     = errors.New("item definition has no parts")
)

// DAX queries.
var (
	ErrInvalidQuery  = errors.New("invalid DAX query")
	ErrQueryFailed   = errors.New("DAX query failed")
	ErrInvalidFormat = errors.New("invalid output format")
)

// Direct Lake model creation.
var (
	ErrInvalidTable           = errors.New("invalid table identifier")
	ErrTableNotFound          = errors.New("table not found in lakehouse")
	ErrDestinationExists      = errors.New("destination item already exists")
	ErrSQLEndpointUnavailable = errors.New("lakehouse SQL endpoint is not available")
	ErrConfirmationRequired   = errors.New("confirmation required")
	ErrAborted                = errors.New("aborted by user")
	ErrNotInteractive         = errors.New("an interactive terminal is required")
)

// fab CLI backend.
var (
	ErrFabCLINotFound     = errors.New("fab CLI not found")
	ErrFabCLIFailed       = errors.New("fab CLI command failed")
	ErrFabCLIVersion      = errors.New("fab CLI version is not supported")
	ErrUnsupportedBackend = errors.New("operation not supported by the selected backend")
	ErrInvalidBackend     = errors.New("invalid backend")
)

// DataHub search.
var (
	ErrInvalidRegion = errors.New("invalid DataHub region")
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidSort   = errors.New("invalid sort field")
	ErrInvalidMode   = errors.New("invalid storage mode")
)

// Configuration and output.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrOutputWrite     = errors.New("failed to write output")
	ErrOneLake         = errors.New("OneLake request failed")
	ErrInvalidArgument = errors.New("invalid argument")
)
