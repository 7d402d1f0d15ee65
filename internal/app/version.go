package app

const ServiceName = "placement-service"

// Set via -ldflags:
//
//	go build -ldflags="-X 'placement-service/internal/app.Version=1.0.0'"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
