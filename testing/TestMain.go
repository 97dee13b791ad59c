package testing

import (
	"os"
	stdtesting "testing"

	// The guard init forces GRUPETTO_TEST_MODE before any other package
	// init observes the environment.
	_ "github.com/grupetto/grupetto/internal/testing/guard"
)

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
