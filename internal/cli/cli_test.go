package cli_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dl7ad/pecantrack/internal/cli"
)

type loopback struct {
	bytes.Buffer
}

func TestDispatchUnknownCommand(t *testing.T) {
	var rw loopback
	c := cli.New(&rw, zerolog.Nop())
	reply := c.Dispatch("bogus arg1")
	require.Equal(t, "ERR_UNKNOWN_COMMAND: bogus", reply)
}

func TestDispatchRegisteredCommand(t *testing.T) {
	var rw loopback
	c := cli.New(&rw, zerolog.Nop())
	c.Register("echo", func(args []string) string {
		if len(args) == 0 {
			return ""
		}
		return args[0]
	})
	reply := c.Dispatch(`echo "hello world"`)
	require.Equal(t, "hello world", reply)
}
