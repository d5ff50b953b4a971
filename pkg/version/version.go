package version

import (
	"fmt"
	"runtime"
)

// Version is set at build time with -ldflags "-X .../pkg/version.Version=v1.2.3".
var Version = "dev"

// UserAgent is sent on every HTTP request.
func UserAgent() string {
	return fmt.Sprintf("fabkit/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
