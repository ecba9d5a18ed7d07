package printer

import (
	"runtime"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Version information.
var (
	MetricSinkBuildTS   = "None"
	MetricSinkGitHash   = "None"
	MetricSinkGitBranch = "None"
)

// PrintMetricSinkInfo prints the metricsink version information.
func PrintMetricSinkInfo() {
	log.Info("Welcome to metricsink",
		zap.String("Git Commit Hash", MetricSinkGitHash),
		zap.String("Git Branch", MetricSinkGitBranch),
		zap.String("UTC Build Time", MetricSinkBuildTS),
		zap.String("GoVersion", runtime.Version()))
}
