package config

const (
	// MaxContentLength bounds a saved translation text in bytes.
	// Task statements are a few pages; anything near this is a paste accident.
	MaxContentLength = 1 << 20

	// MaxPrintCopies bounds the copies a single print request may ask for.
	MaxPrintCopies = 100

	// MaxPathSegmentLength bounds each segment of an artifact path
	// (contest slug, task name, username).
	MaxPathSegmentLength = 100
)
