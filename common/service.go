package common

import (
	"os"
	"sync"

	"github.com/google/uuid"
)

const ServiceName = "statusflow"

var (
	instanceOnce sync.Once
	instance     string
)

func GetServiceName() string {
	return ServiceName
}

// GetServiceInstance returns the host name, or a random id when the host name is unavailable.
func GetServiceInstance() string {
	instanceOnce.Do(func() {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = uuid.New().String()
		}
		instance = host
	})
	return instance
}
