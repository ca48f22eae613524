package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("WORKBRIDGE_TEST_MODE") == "" {
			_ = os.Setenv("WORKBRIDGE_TEST_MODE", "1")
		}
	})
}
