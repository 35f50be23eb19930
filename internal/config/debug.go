package config

import "os"

func IsDebug() bool {
	return os.Getenv("BRIDGE_DEBUG") == "1"
}
