package alloc

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/heapkit/internal/format"
)

// LogEnvVar enables debug logging to stderr when set and Config.Logger is nil.
const LogEnvVar = "HEAP_LOG_ALLOC"

// Policy selects the free-block bookkeeping strategy.
type Policy int

const (
	// PolicySegregated keeps one LIFO doubly linked list per power-of-two
	// size class and searches first fit from the request's class upward.
	PolicySegregated Policy = iota

	// PolicyExplicit keeps a single LIFO doubly linked list of all free blocks.
	PolicyExplicit

	// PolicyImplicit keeps no lists. Free blocks are found by a next-fit
	// scan over every block, starting at a roving cursor.
	PolicyImplicit
)

func (p Policy) String() string {
	switch p {
	case PolicySegregated:
		return "segregated"
	case PolicyExplicit:
		return "explicit"
	case PolicyImplicit:
		return "implicit"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Config controls the allocator. A nil *Config means DefaultConfig.
type Config struct {
	Policy Policy

	// ListLimit is the number of size classes. Ignored (forced to 1 or 0)
	// by the explicit and implicit policies.
	ListLimit int

	// ChunkSize is the minimum number of bytes requested per extension.
	// Zero extends by exactly the adjusted request size.
	ChunkSize int

	// InitialChunk is extended once by New. Zero skips it.
	InitialChunk int

	// Checked validates handles passed to Free, Realloc, Bytes and Touch.
	Checked bool

	// Logger receives allocator events. Nil uses a logger that honors
	// HEAP_LOG_ALLOC.
	Logger logrus.FieldLogger
}

// Predefined configurations.
var (
	ConfigSegregated = Config{
		Policy:    PolicySegregated,
		ListLimit: format.ListLimit,
	}

	ConfigExplicit = Config{
		Policy:       PolicyExplicit,
		ListLimit:    1,
		ChunkSize:    format.ChunkSize,
		InitialChunk: format.ChunkSize,
	}

	ConfigImplicit = Config{
		Policy:       PolicyImplicit,
		ChunkSize:    format.ChunkSize,
		InitialChunk: format.ChunkSize,
	}

	DefaultConfig = ConfigSegregated
)

// normalize validates c and returns the effective configuration.
func (c Config) normalize() (Config, error) {
	switch c.Policy {
	case PolicySegregated:
		if c.ListLimit < 1 || c.ListLimit > format.MaxListLimit {
			return c, fmt.Errorf("%w: list limit %d not in [1, %d]", ErrConfig, c.ListLimit, format.MaxListLimit)
		}
	case PolicyExplicit:
		c.ListLimit = 1
	case PolicyImplicit:
		c.ListLimit = 0
	default:
		return c, fmt.Errorf("%w: unknown policy %d", ErrConfig, int(c.Policy))
	}

	var err error
	if c.ChunkSize, err = roundChunk("chunk size", c.ChunkSize); err != nil {
		return c, err
	}
	if c.InitialChunk, err = roundChunk("initial chunk", c.InitialChunk); err != nil {
		return c, err
	}
	if c.Logger == nil {
		c.Logger = defaultLogger()
	}
	return c, nil
}

// roundChunk rounds a non-zero chunk up to a valid block size.
func roundChunk(name string, n int) (int, error) {
	switch {
	case n < 0:
		return 0, fmt.Errorf("%w: negative %s %d", ErrConfig, name, n)
	case n == 0:
		return 0, nil
	case n > maxRequest:
		return 0, fmt.Errorf("%w: %s %d too large", ErrConfig, name, n)
	}
	return max(format.Align8(n), format.MinBlockSize), nil
}

func defaultLogger() logrus.FieldLogger {
	l := logrus.New()
	if os.Getenv(LogEnvVar) == "" {
		l.SetOutput(io.Discard)
		return l
	}
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.DebugLevel)
	return l
}
