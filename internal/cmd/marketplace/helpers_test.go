package marketplace

import "github.com/louisbranch/marketplace/internal/platform/logging"

func quietLogging() logging.Config {
	return logging.Config{Level: "disabled"}
}
