package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("GRUPETTO_TEST_MODE") == "" {
			_ = os.Setenv("GRUPETTO_TEST_MODE", "1")
		}
	})
}
