package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for rendering and serving posts.
type Recorder interface {
	// ObserveRender records one post conversion.
	ObserveRender(d time.Duration, result ResultLabel)
	// ObserveBuild records one static site build.
	ObserveBuild(d time.Duration, posts int, result ResultLabel)
	// ObserveRequest records one HTTP request by route pattern.
	ObserveRequest(route string, status int, d time.Duration)
	IncThemeToggle(theme string)
	IncLegacyRedirect()
}

// NoopRecorder is a Recorder that does nothing (default when metrics are off).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRender(time.Duration, ResultLabel) {}
func (NoopRecorder) ObserveBuild(time.Duration, int, ResultLabel) {}
func (NoopRecorder) ObserveRequest(string, int, time.Duration) {}
func (NoopRecorder) IncThemeToggle(string) {}
func (NoopRecorder) IncLegacyRedirect() {}

// ResultOf maps an error to its result label.
func ResultOf(err error, canceled bool) ResultLabel {
	switch {
	case err == nil:
		return ResultSuccess
	case canceled:
		return ResultCanceled
	default:
		return ResultFailed
	}
}
